package db

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var DB *sql.DB // package-wide connection handle

// InitDB opens the database connection, bootstraps the schema and runs
// idempotent migrations.
func InitDB() error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %v", err)
	}
	query := parsedURL.Query()
	parsedURL.RawQuery = query.Encode()
	finalURL := parsedURL.String()

	DB, err = sql.Open("postgres", finalURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %v", err)
	}

	DB.SetMaxOpenConns(50)
	DB.SetMaxIdleConns(20)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}
	log.Println("Connected to database.")

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin table-creation transaction: %v", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Printf("Rolling back table-creation transaction: %v", err)
			tx.Rollback()
		}
	}()

	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS drivers (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT,
            phone TEXT,
            type TEXT NOT NULL CHECK (type IN ('affiliate', 'renter')),
            active BOOLEAN DEFAULT TRUE,
            referred_by INTEGER REFERENCES drivers(id),
            uber_uuid TEXT,
            bolt_email TEXT,
            viaverde_id TEXT,
            myprio_card TEXT,
            plate TEXT,
            rental_fee FLOAT DEFAULT 0,
            admin_fee_override_mode TEXT,
            admin_fee_override_value FLOAT,
            is_exempt BOOLEAN DEFAULT FALSE,
            exemption_start DATE,
            exemption_weeks INTEGER DEFAULT 0,
            exemption_reason TEXT,
            exemption_set_by INTEGER,
            financing_active BOOLEAN DEFAULT FALSE,
            financing_installment FLOAT DEFAULT 0,
            financing_installment_pct FLOAT DEFAULT 0,
            financing_interest_pct FLOAT DEFAULT 0,
            created_at TIMESTAMP DEFAULT NOW(),
            updated_at TIMESTAMP DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS weekly_platform_aggregates (
            id SERIAL PRIMARY KEY,
            driver_id INTEGER REFERENCES drivers(id) NOT NULL,
            week_id TEXT NOT NULL,
            platform TEXT NOT NULL,
            total_value FLOAT NOT NULL,
            total_trips INTEGER DEFAULT 0,
            created_at TIMESTAMP DEFAULT NOW(),
            UNIQUE (driver_id, week_id, platform)
        );
        CREATE TABLE IF NOT EXISTS unmapped_rows (
            id SERIAL PRIMARY KEY,
            week_id TEXT NOT NULL,
            platform TEXT NOT NULL,
            reference_key TEXT NOT NULL,
            label TEXT,
            value FLOAT NOT NULL,
            trips INTEGER DEFAULT 0,
            created_at TIMESTAMP DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS driver_weekly_records (
            id SERIAL PRIMARY KEY,
            driver_id INTEGER REFERENCES drivers(id) NOT NULL,
            week_id TEXT NOT NULL,
            gross_earnings FLOAT NOT NULL,
            tax_value FLOAT NOT NULL,
            net_of_tax FLOAT NOT NULL,
            admin_fee_value FLOAT NOT NULL,
            admin_fee_base TEXT NOT NULL,
            fee_exempt BOOLEAN DEFAULT FALSE,
            fuel_expense FLOAT DEFAULT 0,
            toll_expense FLOAT DEFAULT 0,
            rent_expense FLOAT DEFAULT 0,
            financing_installment FLOAT DEFAULT 0,
            financing_interest FLOAT DEFAULT 0,
            expense_total FLOAT NOT NULL,
            repasse FLOAT NOT NULL,
            bonus_total FLOAT DEFAULT 0,
            payment_status TEXT DEFAULT 'pending' NOT NULL,
            paid_at TIMESTAMP WITH TIME ZONE NULL,
            proof_url TEXT,
            proof_file_name TEXT,
            proof_uploaded_at TIMESTAMP WITH TIME ZONE NULL,
            snapshot_json JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT NOW(),
            updated_at TIMESTAMP DEFAULT NOW(),
            UNIQUE (driver_id, week_id)
        );
        CREATE TABLE IF NOT EXISTS affiliate_bonuses (
            id SERIAL PRIMARY KEY,
            indicator_id INTEGER REFERENCES drivers(id) NOT NULL,
            week_id TEXT NOT NULL,
            total FLOAT NOT NULL,
            details_json JSONB,
            paid_out BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMP DEFAULT NOW(),
            UNIQUE (indicator_id, week_id)
        );
        CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value JSONB NOT NULL,
            updated_at TIMESTAMP DEFAULT NOW()
        );
    `
	_, err = tx.Exec(createTablesSQL)
	if err != nil {
		return fmt.Errorf("failed to create tables: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit table creation: %v", err)
	}
	log.Println("Table creation (if not exists) finished.")

	err = migrateDBSchema()
	if err != nil {
		return fmt.Errorf("schema migration failed: %v", err)
	}

	createIndexesSQL := `
        CREATE INDEX IF NOT EXISTS idx_drivers_active ON drivers(active);
        CREATE INDEX IF NOT EXISTS idx_drivers_referred_by ON drivers(referred_by);
        CREATE INDEX IF NOT EXISTS idx_aggregates_week ON weekly_platform_aggregates(week_id);
        CREATE INDEX IF NOT EXISTS idx_unmapped_week ON unmapped_rows(week_id);
        CREATE INDEX IF NOT EXISTS idx_records_week ON driver_weekly_records(week_id);
        CREATE INDEX IF NOT EXISTS idx_records_driver ON driver_weekly_records(driver_id);
        CREATE INDEX IF NOT EXISTS idx_bonuses_week ON affiliate_bonuses(week_id);
        CREATE INDEX IF NOT EXISTS idx_bonuses_indicator ON affiliate_bonuses(indicator_id);
    `
	indexStatements := strings.Split(strings.TrimSpace(createIndexesSQL), ";")
	for _, stmt := range indexStatements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		_, errIdx := DB.Exec(trimmedStmt)
		if errIdx != nil {
			log.Printf("Warning: failed to create index ('%s'): %v", trimmedStmt, errIdx)
		}
	}
	log.Println("Index creation (if not exists) finished.")

	log.Println("Database initialization finished.")
	return nil
}

// migrateDBSchema applies incremental schema changes. Must stay idempotent.
func migrateDBSchema() error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "drivers.financing_columns",
			sql: `ALTER TABLE drivers
                  ADD COLUMN IF NOT EXISTS financing_active BOOLEAN DEFAULT FALSE,
                  ADD COLUMN IF NOT EXISTS financing_installment FLOAT DEFAULT 0,
                  ADD COLUMN IF NOT EXISTS financing_installment_pct FLOAT DEFAULT 0,
                  ADD COLUMN IF NOT EXISTS financing_interest_pct FLOAT DEFAULT 0;`,
		},
		{
			name: "drivers.exemption_audit",
			sql: `ALTER TABLE drivers
                  ADD COLUMN IF NOT EXISTS exemption_reason TEXT,
                  ADD COLUMN IF NOT EXISTS exemption_set_by INTEGER;`,
		},
		{
			name: "driver_weekly_records.proof_columns",
			sql: `ALTER TABLE driver_weekly_records
                  ADD COLUMN IF NOT EXISTS proof_url TEXT,
                  ADD COLUMN IF NOT EXISTS proof_file_name TEXT,
                  ADD COLUMN IF NOT EXISTS proof_uploaded_at TIMESTAMP WITH TIME ZONE NULL;`,
		},
		{
			name: "driver_weekly_records.bonus_total",
			sql: `ALTER TABLE driver_weekly_records
                  ADD COLUMN IF NOT EXISTS bonus_total FLOAT DEFAULT 0;`,
		},
		{
			name: "affiliate_bonuses.paid_out",
			sql: `ALTER TABLE affiliate_bonuses
                  ADD COLUMN IF NOT EXISTS paid_out BOOLEAN DEFAULT FALSE;`,
		},
	}

	for _, migration := range migrations {
		_, err := DB.Exec(migration.sql)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				log.Printf("INFO: migration '%s' skipped (object already exists). Details: %v", migration.name, err)
			} else {
				return fmt.Errorf("schema migration ('%s') failed: %v", migration.name, err)
			}
		}
	}

	log.Println("Schema migrations applied (or not needed).")
	return nil
}

// CloseDB closes the database connection.
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Println("Database connection closed.")
	}
}
