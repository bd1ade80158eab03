package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/example/ec-cart-offers/internal/domain/product"
)

var _ ProductLookup = (*PostgresProductLookup)(nil)

// PostgresProductLookup reads the catalog's products table.
type PostgresProductLookup struct {
	db *sql.DB
}

func NewPostgresProductLookup(db *sql.DB) *PostgresProductLookup {
	return &PostgresProductLookup{db: db}
}

func (l *PostgresProductLookup) FindByID(ctx context.Context, id string) (*product.Product, bool, error) {
	var p product.Product
	err := l.db.QueryRowContext(ctx,
		`SELECT id, name, image_url, price FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.ImageURL, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Infrastructure(err)
	}
	return &p, true, nil
}
