package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

const (
	defaultMinRequired = 10
	defaultMaxCapacity = 100
)

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) ListCells(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryCell, error) {
	query := `
		SELECT
			i.id, i.hospital_id, h.name AS hospital_name, h.location,
			i.blood_type, i.current_units, i.min_required, i.max_capacity, i.updated_at
		FROM blood_inventory i
		JOIN hospitals h ON i.hospital_id = h.id
		WHERE 1=1
	`

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.BloodType != "" {
		conditions = append(conditions, fmt.Sprintf("i.blood_type = $%d", argCounter))
		args = append(args, filter.BloodType)
		argCounter++
	}

	if filter.HospitalID != 0 {
		conditions = append(conditions, fmt.Sprintf("i.hospital_id = $%d", argCounter))
		args = append(args, filter.HospitalID)
		argCounter++
	}

	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("h.location ILIKE $%d", argCounter))
		args = append(args, "%"+filter.Location+"%")
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY h.name, i.blood_type"

	var cells []domain.InventoryCell
	if err := r.db.SelectContext(ctx, &cells, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	return cells, nil
}

func (r *inventoryRepository) UpsertCell(ctx context.Context, hospitalID int64, bloodType string, currentUnits int) (*domain.InventoryCell, error) {
	query := `
		WITH upserted AS (
			INSERT INTO blood_inventory (hospital_id, blood_type, current_units, min_required, max_capacity, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (hospital_id, blood_type) DO UPDATE
			SET current_units = EXCLUDED.current_units,
			    updated_at = NOW()
			RETURNING id, hospital_id, blood_type, current_units, min_required, max_capacity, updated_at
		)
		SELECT
			u.id, u.hospital_id, h.name AS hospital_name, h.location,
			u.blood_type, u.current_units, u.min_required, u.max_capacity, u.updated_at
		FROM upserted u
		JOIN hospitals h ON u.hospital_id = h.id
	`

	var cell domain.InventoryCell
	err := r.db.GetContext(ctx, &cell, query, hospitalID, bloodType, currentUnits, defaultMinRequired, defaultMaxCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert inventory cell: %w", err)
	}

	return &cell, nil
}

func (r *inventoryRepository) TotalsByBloodType(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT blood_type, COALESCE(SUM(current_units), 0) AS total
		FROM blood_inventory
		GROUP BY blood_type
	`

	rows := []struct {
		BloodType string `db:"blood_type"`
		Total     int    `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to sum inventory by blood type: %w", err)
	}

	totals := make(map[string]int, len(rows))
	for _, row := range rows {
		totals[row.BloodType] = row.Total
	}

	return totals, nil
}

func (r *inventoryRepository) Transfer(ctx context.Context, fromHospitalID, toHospitalID int64, bloodType string, units int) (*domain.TransferResult, error) {
	var result *domain.TransferResult

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		// 1. Lock both cells, in ascending hospital order so concurrent
		//    transfers cannot deadlock
		cells, err := lockCells(ctx, tx, []int64{fromHospitalID, toHospitalID}, bloodType)
		if err != nil {
			return err
		}

		source, ok := cells[fromHospitalID]
		if !ok {
			return &domain.InsufficientInventoryError{
				HospitalID: fromHospitalID,
				BloodType:  bloodType,
				Requested:  units,
				Available:  0,
			}
		}

		dest, ok := cells[toHospitalID]
		if !ok {
			dest, err = createCell(ctx, tx, toHospitalID, bloodType)
			if err != nil {
				return err
			}
		}

		// 2. Apply the movement in memory; a failed check rolls back
		//    with no rows touched
		if err := source.Debit(units); err != nil {
			return err
		}
		if err := dest.Credit(units); err != nil {
			return err
		}

		// 3. Persist both new levels
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE blood_inventory
			SET current_units = $1, updated_at = NOW()
			WHERE id = $2
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare level update: %w", err)
		}
		defer stmt.Close()

		for _, cell := range []*domain.InventoryCell{source, dest} {
			if _, err := stmt.ExecContext(ctx, cell.CurrentUnits, cell.ID); err != nil {
				return fmt.Errorf("failed to update inventory level: %w", err)
			}
		}

		result = &domain.TransferResult{
			FromHospitalID:   fromHospitalID,
			ToHospitalID:     toHospitalID,
			BloodType:        bloodType,
			UnitsTransferred: units,
			SourceRemaining:  source.CurrentUnits,
			DestNewLevel:     dest.CurrentUnits,
			ExecutedAt:       time.Now().UTC(),
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func lockCells(ctx context.Context, tx *sql.Tx, hospitalIDs []int64, bloodType string) (map[int64]*domain.InventoryCell, error) {
	query := `
		SELECT id, hospital_id, blood_type, current_units, min_required, max_capacity
		FROM blood_inventory
		WHERE hospital_id = $1 AND blood_type = $2
		FOR UPDATE
	`

	first, second := hospitalIDs[0], hospitalIDs[1]
	if second < first {
		first, second = second, first
	}

	cells := make(map[int64]*domain.InventoryCell, 2)
	for _, hospitalID := range []int64{first, second} {
		var cell domain.InventoryCell
		err := tx.QueryRowContext(ctx, query, hospitalID, bloodType).Scan(
			&cell.ID, &cell.HospitalID, &cell.BloodType,
			&cell.CurrentUnits, &cell.MinRequired, &cell.MaxCapacity,
		)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock inventory cell: %w", err)
		}
		cells[hospitalID] = &cell
	}

	return cells, nil
}

func createCell(ctx context.Context, tx *sql.Tx, hospitalID int64, bloodType string) (*domain.InventoryCell, error) {
	// ON CONFLICT guards against a concurrent insert; either branch
	// leaves the row locked by this transaction
	query := `
		INSERT INTO blood_inventory (hospital_id, blood_type, current_units, min_required, max_capacity, updated_at)
		VALUES ($1, $2, 0, $3, $4, NOW())
		ON CONFLICT (hospital_id, blood_type) DO UPDATE
		SET updated_at = NOW()
		RETURNING id, hospital_id, blood_type, current_units, min_required, max_capacity
	`

	var cell domain.InventoryCell
	err := tx.QueryRowContext(ctx, query, hospitalID, bloodType, defaultMinRequired, defaultMaxCapacity).Scan(
		&cell.ID, &cell.HospitalID, &cell.BloodType,
		&cell.CurrentUnits, &cell.MinRequired, &cell.MaxCapacity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory cell: %w", err)
	}

	return &cell, nil
}
