package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Initialize the postgres schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		route_id     TEXT PRIMARY KEY,
		route_date   DATE NOT NULL,
		route_type   TEXT NOT NULL CHECK (route_type IN ('collect', 'distribute')),
		status       TEXT NOT NULL,
		truck_id     TEXT NOT NULL,
		user_id      TEXT NOT NULL,
		completed_at TIMESTAMPTZ
	);
	`

	createDestinationsQuery := `
	CREATE TABLE IF NOT EXISTS destinations (
		destination_id TEXT PRIMARY KEY,
		route_id       TEXT NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE,
		address        TEXT NOT NULL,
		dest_type      TEXT NOT NULL
	);
	`

	createDestinationProductsQuery := `
	CREATE TABLE IF NOT EXISTS destination_products (
		destination_product_id TEXT PRIMARY KEY,
		destination_id         TEXT NOT NULL REFERENCES destinations(destination_id) ON DELETE CASCADE,
		product_id             TEXT NOT NULL,
		quantity               INTEGER NOT NULL CHECK (quantity > 0)
	);
	`

	createStockEntriesQuery := `
	CREATE TABLE IF NOT EXISTS stock_entries (
		product_id TEXT NOT NULL,
		zone       TEXT NOT NULL,
		on_hand    INTEGER NOT NULL CHECK (on_hand >= 0),
		PRIMARY KEY (product_id, zone)
	);
	`

	createDonationsQuery := `
	CREATE TABLE IF NOT EXISTS donations (
		donation_id  TEXT PRIMARY KEY,
		donor_name   TEXT NOT NULL,
		product_id   TEXT NOT NULL,
		quantity     INTEGER NOT NULL,
		route_id     TEXT REFERENCES routes(route_id),
		collected    BOOLEAN NOT NULL DEFAULT FALSE,
		collected_at TIMESTAMPTZ
	);
	`

	createSchedulesQuery := `
	CREATE TABLE IF NOT EXISTS schedules (
		schedule_id   TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		schedule_date DATE NOT NULL,
		schedule_type TEXT NOT NULL
	);
	`

	createScheduleRoutesQuery := `
	CREATE TABLE IF NOT EXISTS schedule_routes (
		schedule_id TEXT NOT NULL REFERENCES schedules(schedule_id) ON DELETE CASCADE,
		route_id    TEXT NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE,
		PRIMARY KEY (schedule_id, route_id)
	);
	`

	createBookingIndexesQuery := `
	CREATE INDEX IF NOT EXISTS idx_routes_truck_date ON routes(truck_id, route_date);
	CREATE INDEX IF NOT EXISTS idx_routes_user_date ON routes(user_id, route_date);
	CREATE INDEX IF NOT EXISTS idx_donations_route ON donations(route_id);
	`

	statements := []string{
		createRoutesQuery,
		createDestinationsQuery,
		createDestinationProductsQuery,
		createStockEntriesQuery,
		createDonationsQuery,
		createSchedulesQuery,
		createScheduleRoutesQuery,
		createBookingIndexesQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type StockSeed struct {
	ProductID string `json:"product_id"`
	Zone      string `json:"zone"`
	OnHand    int    `json:"on_hand"`
}

type DonationSeed struct {
	DonationID string `json:"donation_id"`
	DonorName  string `json:"donor_name"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

// Populate the database with demo stock and pending donations from the
// seed directory (stock.json, donations.json). Missing files are skipped.
func SeedFromJSON(db *sql.DB, seedDir string) error {
	if err := seedStock(db, filepath.Join(seedDir, "stock.json")); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := seedDonations(db, filepath.Join(seedDir, "donations.json")); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

func seedStock(db *sql.DB, path string) error {
	bytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}

	var data []StockSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.ProductID) == "" || strings.TrimSpace(item.Zone) == "" {
			return fmt.Errorf("stock seed at index %d: product_id and zone are required", i+1)
		}
		if item.OnHand < 0 {
			return fmt.Errorf("stock seed at index %d: negative on_hand %d", i+1, item.OnHand)
		}

		_, err := db.Exec(`
		INSERT INTO stock_entries (product_id, zone, on_hand)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, zone) DO UPDATE SET on_hand = EXCLUDED.on_hand;
		`, item.ProductID, item.Zone, item.OnHand)
		if err != nil {
			return fmt.Errorf("insert stock seed %s/%s: %w", item.ProductID, item.Zone, err)
		}
	}

	return nil
}

func seedDonations(db *sql.DB, path string) error {
	bytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}

	var data []DonationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.DonationID) == "" {
			return fmt.Errorf("donation seed at index %d: donation_id is required", i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("donation seed at index %d: non-positive quantity %d", i+1, item.Quantity)
		}

		_, err := db.Exec(`
		INSERT INTO donations (donation_id, donor_name, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (donation_id) DO NOTHING;
		`, item.DonationID, item.DonorName, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert donation seed %s: %w", item.DonationID, err)
		}
	}

	return nil
}
