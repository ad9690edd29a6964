package domain

import (
	"errors"
	"fmt"
)

// ErrModelNotReady is returned when a prediction is requested before the
// demand model has been trained or loaded from its persisted artifact.
var ErrModelNotReady = errors.New("demand model is not trained")

// ErrForecastNotFound is returned when a forecast id does not exist.
var ErrForecastNotFound = errors.New("forecast not found")

// ErrHospitalNotFound is returned when a hospital id does not exist.
var ErrHospitalNotFound = errors.New("hospital not found")

// InsufficientInventoryError rejects a transfer that would overdraw the
// source hospital's stock.
type InsufficientInventoryError struct {
	HospitalID int64
	BloodType  string
	Requested  int
	Available  int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("hospital %d: insufficient %s inventory: requested %d, available %d",
		e.HospitalID, e.BloodType, e.Requested, e.Available)
}

// CapacityExceededError rejects a transfer that would push the destination
// hospital past its storage capacity.
type CapacityExceededError struct {
	HospitalID int64
	BloodType  string
	Requested  int
	Current    int
	Capacity   int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("hospital %d: transfer of %d %s units exceeds capacity: current %d, capacity %d",
		e.HospitalID, e.Requested, e.BloodType, e.Current, e.Capacity)
}
