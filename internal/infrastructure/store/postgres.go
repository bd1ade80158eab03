package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS carts (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		session_id TEXT,
		items JSONB NOT NULL DEFAULT '[]',
		total_amount NUMERIC NOT NULL DEFAULT 0 CHECK (total_amount >= 0),
		applied_coupon JSONB,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (user_id IS NOT NULL OR session_id IS NOT NULL)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS carts_user_owner_idx ON carts (user_id) WHERE user_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS carts_session_owner_idx ON carts (session_id) WHERE user_id IS NULL`,
	`CREATE TABLE IF NOT EXISTS offers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		value NUMERIC NOT NULL CHECK (value >= 0),
		minimum_purchase_amount NUMERIC NOT NULL DEFAULT 0 CHECK (minimum_purchase_amount >= 0),
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		usage_limit INTEGER CHECK (usage_limit >= 0),
		used_count INTEGER NOT NULL DEFAULT 0 CHECK (used_count >= 0),
		applies_to TEXT NOT NULL DEFAULT 'allProducts',
		products_affected TEXT[] NOT NULL DEFAULT '{}',
		categories_affected TEXT[] NOT NULL DEFAULT '{}',
		coupon_code TEXT UNIQUE,
		buy_quantity INTEGER CHECK (buy_quantity >= 1),
		get_quantity INTEGER CHECK (get_quantity >= 0),
		get_discount_percentage NUMERIC CHECK (get_discount_percentage BETWEEN 0 AND 100),
		users_allowed TEXT[] NOT NULL DEFAULT '{}',
		max_uses_per_user INTEGER CHECK (max_uses_per_user >= 1),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS offers_active_window_idx ON offers (start_date, end_date) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS offer_redemptions (
		id TEXT PRIMARY KEY,
		offer_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		cart_id TEXT,
		redeemed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS offer_redemptions_user_idx ON offer_redemptions (offer_id, user_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL CHECK (price >= 0)
	)`,
}

// EnsureSchema creates the tables and indexes the stores rely on.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return apperr.Infrastructure(err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// uniqueConstraint returns the violated constraint name when err is a
// unique violation.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
