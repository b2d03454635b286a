// cmd/seed/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing CSV seed data",
		Value:   "./data/seeds",
		EnvVars: []string{"SEED_DATA_DIR"},
	}
}

// nullIfEmpty returns NULL if the string is empty, otherwise returns the string
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
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
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the database with batches, shipments, inspections and rates",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:   "batches",
				Usage:  "Seed finance batches from batches.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Before: initDB,
				After:  closeDB,
				Action: seedBatches,
			},
			{
				Name:   "shipments",
				Usage:  "Seed shipments from shipments.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Before: initDB,
				After:  closeDB,
				Action: seedShipments,
			},
			{
				Name:   "inspections",
				Usage:  "Seed inspections from inspections.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Before: initDB,
				After:  closeDB,
				Action: seedInspections,
			},
			{
				Name:   "rates",
				Usage:  "Seed exchange rates from rates.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Before: initDB,
				After:  closeDB,
				Action: seedRates,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openCSV(c *cli.Context, name string) (*csv.Reader, func() error, error) {
	path := filepath.Join(c.String("data-dir"), name)
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Skip the header row
	if _, err := r.Read(); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	return r, f.Close, nil
}

// batches.csv: id,batch_code,sender,admin,transit,receiver,status,unit_price_a,unit_price_b,unit_price_c
func seedBatches(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	r, closeFn, err := openCSV(c, "batches.csv")
	if err != nil {
		return err
	}
	defer closeFn()

	count := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read batches.csv: %w", err)
		}
		if len(rec) < 10 {
			return fmt.Errorf("batches.csv row %d has %d fields, want 10", count+2, len(rec))
		}

		_, err = db.ExecContext(c.Context, `
			INSERT INTO finance_batches (
				id, batch_code, sender_name, admin_name, transit_name, receiver_name,
				status, unit_price_a, unit_price_b, unit_price_c,
				sender_weight, sender_volume, transit_weight, transit_volume,
				receiver_weight, receiver_volume, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, 0, 0, 0, 0, NOW(), NOW())
			ON CONFLICT (id) DO NOTHING
		`, rec[0], rec[1], rec[2], rec[3], rec[4], rec[5], rec[6], rec[7], rec[8], rec[9])
		if err != nil {
			return fmt.Errorf("failed to insert batch %s: %w", rec[1], err)
		}
		count++
	}

	log.Printf("seeded %d batches", count)
	return nil
}

// shipments.csv: id,batch_id,tracking_no,package_tag,parent_shipment_id,weight,length,width,height
func seedShipments(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	r, closeFn, err := openCSV(c, "shipments.csv")
	if err != nil {
		return err
	}
	defer closeFn()

	count := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read shipments.csv: %w", err)
		}
		if len(rec) < 9 {
			return fmt.Errorf("shipments.csv row %d has %d fields, want 9", count+2, len(rec))
		}

		// Measurements stay raw; malformed values are coerced at calculation
		// time, not at import time.
		_, err = db.ExecContext(c.Context, `
			INSERT INTO shipments (
				id, batch_id, tracking_no, package_tag, parent_shipment_id,
				weight, length, width, height, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			ON CONFLICT (id) DO NOTHING
		`, rec[0], rec[1], rec[2], nullIfEmpty(rec[3]), nullIfEmpty(rec[4]),
			nullIfEmpty(rec[5]), nullIfEmpty(rec[6]), nullIfEmpty(rec[7]), nullIfEmpty(rec[8]))
		if err != nil {
			return fmt.Errorf("failed to insert shipment %s: %w", rec[2], err)
		}
		count++
	}

	log.Printf("seeded %d shipments", count)
	return nil
}

// inspections.csv: id,shipment_id,notes,transit_weight,transit_length,transit_width,transit_height,check_weight,check_length,check_width,check_height
func seedInspections(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	r, closeFn, err := openCSV(c, "inspections.csv")
	if err != nil {
		return err
	}
	defer closeFn()

	count := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read inspections.csv: %w", err)
		}
		if len(rec) < 11 {
			return fmt.Errorf("inspections.csv row %d has %d fields, want 11", count+2, len(rec))
		}

		_, err = db.ExecContext(c.Context, `
			INSERT INTO inspections (
				id, shipment_id, notes,
				transit_weight, transit_length, transit_width, transit_height,
				check_weight, check_length, check_width, check_height, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
			ON CONFLICT (id) DO NOTHING
		`, rec[0], nullIfEmpty(rec[1]), nullIfEmpty(rec[2]),
			nullIfEmpty(rec[3]), nullIfEmpty(rec[4]), nullIfEmpty(rec[5]), nullIfEmpty(rec[6]),
			nullIfEmpty(rec[7]), nullIfEmpty(rec[8]), nullIfEmpty(rec[9]), nullIfEmpty(rec[10]))
		if err != nil {
			return fmt.Errorf("failed to insert inspection %s: %w", rec[0], err)
		}
		count++
	}

	log.Printf("seeded %d inspections", count)
	return nil
}

// rates.csv: id,base_currency,target_currency,rate,is_active
func seedRates(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	r, closeFn, err := openCSV(c, "rates.csv")
	if err != nil {
		return err
	}
	defer closeFn()

	count := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read rates.csv: %w", err)
		}
		if len(rec) < 5 {
			return fmt.Errorf("rates.csv row %d has %d fields, want 5", count+2, len(rec))
		}

		_, err = db.ExecContext(c.Context, `
			INSERT INTO exchange_rates (id, base_currency, target_currency, rate, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (id) DO NOTHING
		`, rec[0], rec[1], rec[2], rec[3], rec[4] == "true")
		if err != nil {
			return fmt.Errorf("failed to insert rate %s/%s: %w", rec[1], rec[2], err)
		}
		count++
	}

	log.Printf("seeded %d exchange rates", count)
	return nil
}
