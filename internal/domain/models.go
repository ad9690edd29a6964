// internal/domain/models.go
package domain

import "time"

// BloodTypes lists the eight ABO/Rh groups tracked by the platform,
// ordered from most to least common in the donor population.
var BloodTypes = []string{"O+", "A+", "B+", "AB+", "O-", "A-", "B-", "AB-"}

var bloodTypeSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(BloodTypes))
	for _, bt := range BloodTypes {
		s[bt] = struct{}{}
	}
	return s
}()

// IsValidBloodType reports whether bt is one of the tracked blood groups.
func IsValidBloodType(bt string) bool {
	_, ok := bloodTypeSet[bt]
	return ok
}

// Hospital represents a partner hospital or blood bank
type Hospital struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Location  string    `json:"location" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// InventoryCell is one hospital's stock of one blood type
type InventoryCell struct {
	ID           int64     `json:"id" db:"id"`
	HospitalID   int64     `json:"hospital_id" db:"hospital_id"`
	HospitalName string    `json:"hospital_name" db:"hospital_name"`
	Location     string    `json:"location" db:"location"`
	BloodType    string    `json:"blood_type" db:"blood_type"`
	CurrentUnits int       `json:"current_units" db:"current_units"`
	MinRequired  int       `json:"min_required" db:"min_required"`
	MaxCapacity  int       `json:"max_capacity" db:"max_capacity"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DemandRecord is one observed day of demand for a blood type in a region
type DemandRecord struct {
	ID              int64     `json:"id" db:"id"`
	BloodType       string    `json:"blood_type" db:"blood_type"`
	Region          string    `json:"region" db:"region"`
	ObservedOn      time.Time `json:"observed_on" db:"observed_on"`
	Units           int       `json:"units" db:"units"`
	Season          string    `json:"season" db:"season"`
	DiseaseOutbreak bool      `json:"disease_outbreak" db:"disease_outbreak"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Forecast is a predicted demand figure for one (blood type, region) cell
type Forecast struct {
	ID              int64     `json:"id" db:"id"`
	BloodType       string    `json:"blood_type" db:"blood_type"`
	Region          string    `json:"region" db:"region"`
	ForecastDate    time.Time `json:"forecast_date" db:"forecast_date"`
	PredictedDemand float64   `json:"predicted_demand" db:"predicted_demand"`
	Confidence      float64   `json:"confidence" db:"confidence"`
	ShortageRisk    RiskLevel `json:"shortage_risk" db:"shortage_risk"`
	AlertSent       bool      `json:"alert_sent" db:"alert_sent"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// RiskBreakdown counts forecasts per shortage risk level
type RiskBreakdown struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// ForecastSummary aggregates recent forecasts for dashboards
type ForecastSummary struct {
	TotalForecasts    int           `json:"total_forecasts"`
	ByRiskLevel       RiskBreakdown `json:"by_risk_level"`
	RegionsCovered    []string      `json:"regions_covered"`
	BloodTypesCovered []string      `json:"blood_types_covered"`
	HoursBack         int           `json:"hours_back"`
}

// InventoryStatus is an inventory cell annotated with its stock band
// and the shortage/surplus figures redistribution matching works from.
type InventoryStatus struct {
	InventoryCell
	Status   StockStatus `json:"status"`
	Shortage int         `json:"shortage"`
	Surplus  float64     `json:"surplus"`
}

// RedistributionOpportunity is a proposed transfer between two hospitals.
// Proposals are advisory: nothing is reserved until a transfer executes.
type RedistributionOpportunity struct {
	FromHospitalID   int64   `json:"from_hospital_id"`
	FromHospitalName string  `json:"from_hospital_name"`
	ToHospitalID     int64   `json:"to_hospital_id"`
	ToHospitalName   string  `json:"to_hospital_name"`
	BloodType        string  `json:"blood_type"`
	TransferUnits    int     `json:"transfer_units"`
	Priority         float64 `json:"priority"`
	Reason           string  `json:"reason"`

	// Set only on forecast-driven proposals
	ForecastBased   bool     `json:"forecast_based,omitempty"`
	ShortageRegions []string `json:"predicted_shortage_regions,omitempty"`
}

// TransferResult reports a completed inventory transfer
type TransferResult struct {
	TransferID       string    `json:"transfer_id"`
	FromHospitalID   int64     `json:"from_hospital_id"`
	ToHospitalID     int64     `json:"to_hospital_id"`
	BloodType        string    `json:"blood_type"`
	UnitsTransferred int       `json:"units_transferred"`
	SourceRemaining  int       `json:"source_remaining"`
	DestNewLevel     int       `json:"dest_new_level"`
	ExecutedAt       time.Time `json:"executed_at"`
}

// RedistributionSummary is a network-wide view of stock balance
type RedistributionSummary struct {
	TotalHospitals          int     `json:"total_hospitals"`
	TotalInventoryRecords   int     `json:"total_inventory_records"`
	CriticalCount           int     `json:"critical_count"`
	LowCount                int     `json:"low_count"`
	AdequateCount           int     `json:"adequate_count"`
	ExcessCount             int     `json:"excess_count"`
	TotalShortageUnits      int     `json:"total_shortage_units"`
	TotalSurplusUnits       float64 `json:"total_surplus_units"`
	RedistributionPotential float64 `json:"redistribution_potential"`
	BloodTypesTracked       int     `json:"blood_types_tracked"`
}

// InventoryFilter narrows inventory queries
type InventoryFilter struct {
	BloodType  string
	HospitalID int64
	Location   string
}

// ForecastFilter narrows forecast queries
type ForecastFilter struct {
	BloodType string
	Region    string
	MinRisk   *RiskLevel
	Limit     int
}
