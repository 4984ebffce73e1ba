package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates the coupons table. Safe to call multiple times.
// The UNIQUE constraint on serial_number makes coupon creation a single
// conditional insert; duplicate serials fail at the database instead of
// racing through a separate existence check.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS coupons (
    id UUID PRIMARY KEY,
    amount INTEGER NOT NULL,
    serial_number TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    is_used BOOLEAN NOT NULL DEFAULT FALSE,
    used_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_coupons_created_at ON coupons (created_at DESC);
`
