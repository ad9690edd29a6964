package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// RiskLevel grades how likely a shortage is for a forecast cell.
// Levels are ordered: a numeric comparison such as r >= RiskHigh is the
// supported way to apply a minimum-severity threshold.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskLabels = map[RiskLevel]string{
	RiskLow:      "Low",
	RiskMedium:   "Medium",
	RiskHigh:     "High",
	RiskCritical: "Critical",
}

var riskCodes = map[string]RiskLevel{
	"low":      RiskLow,
	"medium":   RiskMedium,
	"high":     RiskHigh,
	"critical": RiskCritical,
}

func (r RiskLevel) String() string {
	if label, ok := riskLabels[r]; ok {
		return label
	}

	return fmt.Sprintf("RiskLevel(%d)", int(r))
}

// AtLeast reports whether r is at least as severe as min.
func (r RiskLevel) AtLeast(min RiskLevel) bool {
	return r >= min
}

// ParseRiskLevel returns the level for a given label (case-insensitive).
func ParseRiskLevel(label string) (RiskLevel, bool) {
	level, ok := riskCodes[strings.ToLower(strings.TrimSpace(label))]

	return level, ok
}

// MarshalJSON encodes the level as its label so API payloads stay readable.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}

	level, ok := ParseRiskLevel(label)
	if !ok {
		return fmt.Errorf("unknown risk level %q", label)
	}
	*r = level

	return nil
}

// Value stores the level as its label text.
func (r RiskLevel) Value() (driver.Value, error) {
	return r.String(), nil
}

// Scan accepts the label text written by Value.
func (r *RiskLevel) Scan(src any) error {
	var label string
	switch v := src.(type) {
	case string:
		label = v
	case []byte:
		label = string(v)
	default:
		return fmt.Errorf("cannot scan %T into RiskLevel", src)
	}

	level, ok := ParseRiskLevel(label)
	if !ok {
		return fmt.Errorf("unknown risk level %q", label)
	}
	*r = level

	return nil
}
