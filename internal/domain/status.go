package domain

import "strings"

// StockStatus bands an inventory cell by how its units compare to the
// hospital's configured minimum and capacity.
type StockStatus string

const (
	StockCritical StockStatus = "Critical"
	StockLow      StockStatus = "Low"
	StockAdequate StockStatus = "Adequate"
	StockExcess   StockStatus = "Excess"
)

var stockStatuses = map[string]StockStatus{
	"critical": StockCritical,
	"low":      StockLow,
	"adequate": StockAdequate,
	"excess":   StockExcess,
}

// ParseStockStatus returns the status for a given label (case-insensitive).
func ParseStockStatus(label string) (StockStatus, bool) {
	status, ok := stockStatuses[strings.ToLower(label)]

	return status, ok
}
