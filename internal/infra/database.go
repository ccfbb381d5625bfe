package infra

import (
	"fmt"

	"parkgate/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies idempotent SQL patches for the DDL
// GORM cannot express (sequences, partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates/updates the schema. Also used by integration tests
// against throwaway containers.
func RunMigrations(db *gorm.DB) error {
	// gen_random_uuid() ships with pgcrypto on PG < 13
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Slot{},
		&model.Vehicle{},
		&model.Driver{},
		&model.Ticket{},
		&model.Payment{},
		&model.Shift{},
		&model.AuditRecord{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on a patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Ticket and receipt numbers come from sequences, not wall-clock
		// tokens — collision-free under concurrent check-ins/check-outs.
		{"tickets ticket_number sequence",
			`CREATE SEQUENCE IF NOT EXISTS tickets_ticket_number_seq`},
		{"payments receipt_number sequence",
			`CREATE SEQUENCE IF NOT EXISTS payments_receipt_number_seq`},

		// At most one open shift per cashier per day. The application
		// pre-checks for a friendly error; this index is what actually
		// serializes two concurrent opens.
		{"one open shift per cashier per day", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_shifts_open_per_cashier_day') THEN
    CREATE UNIQUE INDEX uni_shifts_open_per_cashier_day
        ON shifts (cashier_id, shift_date)
        WHERE status = 'open';
  END IF;
END $$`},

		// Open-ticket lookup per slot: enforces "occupied iff exactly one
		// ticket with check_out_time IS NULL" at the store.
		{"one open ticket per slot", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_tickets_open_per_slot') THEN
    CREATE UNIQUE INDEX uni_tickets_open_per_slot
        ON tickets (slot_id)
        WHERE check_out_time IS NULL AND payment_status = 'pending';
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
