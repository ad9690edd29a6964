package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type contextKey int

const dbKey contextKey = iota

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newSeedFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:  "seed",
		Usage: "RNG seed so repeated runs produce the same data",
		Value: 42,
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not found in context")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Prepare a bloodlink database: schema, hospitals, inventory, demand history",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Apply schema migrations in filename order",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "migrations-dir",
						Usage:   "Directory containing migration SQL files",
						Value:   "./scripts/migrations",
						EnvVars: []string{"MIGRATIONS_DIR"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "hospitals",
				Usage: "Seed the Delhi hospital network",
				Flags: []cli.Flag{
					newDBURLFlag(),
				},
				Before: initDB,
				After:  closeDB,
				Action: seedHospitals,
			},
			{
				Name:  "inventory",
				Usage: "Seed randomized starting inventory for every hospital and blood type",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newSeedFlag(),
				},
				Before: initDB,
				After:  closeDB,
				Action: seedInventory,
			},
			{
				Name:  "demand-history",
				Usage: "Seed synthesized demand history for model training",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newSeedFlag(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "How many days of history to synthesize",
						Value: 365,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: seedDemandHistory,
			},
			{
				Name:  "demo",
				Usage: "Run the train/forecast/redistribute walkthrough against a seeded database",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "artifact-dir",
						Usage: "Directory for the trained model artifact",
						Value: "./data/models",
					},
					&cli.IntFlag{
						Name:  "horizon",
						Usage: "Forecast horizon in hours",
						Value: 48,
					},
				},
				Action: runDemo,
			},
			{
				Name:  "all",
				Usage: "Migrate and seed hospitals, inventory and demand history",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newSeedFlag(),
					&cli.StringFlag{
						Name:    "migrations-dir",
						Usage:   "Directory containing migration SQL files",
						Value:   "./scripts/migrations",
						EnvVars: []string{"MIGRATIONS_DIR"},
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "How many days of history to synthesize",
						Value: 365,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					if err := runMigrate(c); err != nil {
						return fmt.Errorf("error applying migrations: %w", err)
					}
					if err := seedHospitals(c); err != nil {
						return fmt.Errorf("error seeding hospitals: %w", err)
					}
					if err := seedInventory(c); err != nil {
						return fmt.Errorf("error seeding inventory: %w", err)
					}
					if err := seedDemandHistory(c); err != nil {
						return fmt.Errorf("error seeding demand history: %w", err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
