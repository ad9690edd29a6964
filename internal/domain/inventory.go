package domain

// Debit removes units from the cell, rejecting overdraws. The check and
// the mutation stay together so every caller (transactional repository,
// in-memory fixtures) enforces the same rule.
func (c *InventoryCell) Debit(units int) error {
	if units > c.CurrentUnits {
		return &InsufficientInventoryError{
			HospitalID: c.HospitalID,
			BloodType:  c.BloodType,
			Requested:  units,
			Available:  c.CurrentUnits,
		}
	}
	c.CurrentUnits -= units

	return nil
}

// Credit adds units to the cell, rejecting overflows past MaxCapacity.
func (c *InventoryCell) Credit(units int) error {
	if c.CurrentUnits+units > c.MaxCapacity {
		return &CapacityExceededError{
			HospitalID: c.HospitalID,
			BloodType:  c.BloodType,
			Requested:  units,
			Current:    c.CurrentUnits,
			Capacity:   c.MaxCapacity,
		}
	}
	c.CurrentUnits += units

	return nil
}
