package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/forecast"
	"github.com/urfave/cli/v2"
)

// delhiHospitals is the starting network. Names carry the unique
// constraint, so re-running the seeder refreshes locations in place.
var delhiHospitals = []struct {
	Name     string
	Location string
}{
	{"Apollo Hospital Delhi", "Sarita Vihar, South Delhi"},
	{"AIIMS Delhi", "Ansari Nagar, South Delhi"},
	{"Max Super Speciality Hospital", "Saket, South Delhi"},
	{"Fortis Hospital", "Shalimar Bagh, North Delhi"},
	{"Safdarjung Hospital", "Ansari Nagar West, South Delhi"},
	{"BLK Super Speciality Hospital", "Pusa Road, Central Delhi"},
}

func seedHospitals(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Defer a rollback in case anything fails.
	defer tx.Rollback()

	log.Println("Seeding hospitals...")

	for _, h := range delhiHospitals {
		_, err := tx.ExecContext(c.Context, `
			INSERT INTO hospitals (name, location, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (name) DO UPDATE SET
				location = EXCLUDED.location,
				updated_at = NOW()
		`, h.Name, h.Location)
		if err != nil {
			return fmt.Errorf("failed to seed hospital %s: %w", h.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Seeded %d hospitals successfully!\n", len(delhiHospitals))
	return nil
}

// loadHospitalIDs maps hospital names to their database IDs so later
// seeding steps can reference rows inserted by earlier ones.
func loadHospitalIDs(ctx context.Context, tx *sql.Tx) (map[string]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM hospitals`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hospitals: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan hospital row: %w", err)
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

func seedInventory(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(c.Int64("seed")))

	tx, err := db.BeginTx(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Defer a rollback in case anything fails.
	defer tx.Rollback()

	hospitalIDs, err := loadHospitalIDs(c.Context, tx)
	if err != nil {
		return err
	}
	if len(hospitalIDs) == 0 {
		return fmt.Errorf("no hospitals found; run the hospitals command first")
	}

	log.Println("Seeding blood inventory...")

	count := 0
	for _, h := range delhiHospitals {
		id, ok := hospitalIDs[h.Name]
		if !ok {
			return fmt.Errorf("hospital %s missing from database", h.Name)
		}
		for _, bloodType := range domain.BloodTypes {
			current := rng.Intn(101)
			_, err := tx.ExecContext(c.Context, `
				INSERT INTO blood_inventory (hospital_id, blood_type, current_units, min_required, max_capacity, updated_at)
				VALUES ($1, $2, $3, 10, 100, NOW())
				ON CONFLICT (hospital_id, blood_type) DO UPDATE SET
					current_units = EXCLUDED.current_units,
					updated_at = NOW()
			`, id, bloodType, current)
			if err != nil {
				return fmt.Errorf("failed to seed inventory for %s %s: %w", h.Name, bloodType, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Seeded %d inventory cells successfully!\n", count)
	return nil
}

func seedDemandHistory(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	days := c.Int("days")
	source := forecast.NewSyntheticSource(c.Int64("seed"), nil)
	records, err := source.HistoricalDemand(c.Context, days)
	if err != nil {
		return fmt.Errorf("failed to synthesize demand history: %w", err)
	}

	tx, err := db.BeginTx(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Defer a rollback in case anything fails.
	defer tx.Rollback()

	log.Printf("Seeding %d days of demand history (%d rows)...\n", days, len(records))

	stmt, err := tx.PrepareContext(c.Context, `
		INSERT INTO demand_history (blood_type, region, observed_on, units, season, disease_outbreak, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(c.Context, r.BloodType, r.Region, r.ObservedOn, r.Units, r.Season, r.DiseaseOutbreak); err != nil {
			return fmt.Errorf("failed to insert demand row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Seeded %d demand history rows successfully!\n", len(records))
	return nil
}
