package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/example/ec-cart-offers/internal/domain/cart"
)

var _ CartRepository = (*PostgresCartStore)(nil)

const cartColumns = `id, user_id, session_id, items, total_amount, applied_coupon, status, created_at, updated_at`

// PostgresCartStore implements CartRepository on the carts table. Items and
// the applied coupon are stored as JSONB.
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

func (s *PostgresCartStore) FindByID(ctx context.Context, id string) (*cart.Cart, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
	return scanCartRow(row)
}

// FindByOwner looks a cart up by user id when one is given, otherwise by
// the guest session id.
func (s *PostgresCartStore) FindByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, bool, error) {
	var row *sql.Row
	switch {
	case owner.UserID != "":
		row = s.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, owner.UserID)
	case owner.SessionID != "":
		row = s.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE session_id = $1 AND user_id IS NULL`, owner.SessionID)
	default:
		return nil, false, nil
	}
	return scanCartRow(row)
}

func (s *PostgresCartStore) Create(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	items, coupon, err := encodeCartDocs(c)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO carts (`+cartColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID,
		nullString(c.UserID),
		nullString(c.SessionID),
		items,
		c.TotalAmount,
		coupon,
		string(c.Status),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if constraint == "carts_pkey" {
				return nil, ErrDuplicateID
			}
			return nil, ErrDuplicateCart
		}
		return nil, apperr.Infrastructure(err)
	}
	return c, nil
}

func (s *PostgresCartStore) Update(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	items, coupon, err := encodeCartDocs(c)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE carts SET user_id = $2, session_id = $3, items = $4, total_amount = $5,
		 applied_coupon = $6, status = $7, updated_at = $8
		 WHERE id = $1`,
		c.ID,
		nullString(c.UserID),
		nullString(c.SessionID),
		items,
		c.TotalAmount,
		coupon,
		string(c.Status),
		c.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return nil, ErrDuplicateCart
		}
		return nil, apperr.Infrastructure(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Infrastructure(err)
	}
	if n == 0 {
		return nil, ErrCartNotFound
	}
	return c, nil
}

func (s *PostgresCartStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return false, apperr.Infrastructure(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Infrastructure(err)
	}
	return n > 0, nil
}

// encodeCartDocs returns the JSONB values for items and the coupon. A
// missing coupon encodes as SQL NULL.
func encodeCartDocs(c *cart.Cart) (items []byte, coupon any, err error) {
	lines := c.Items
	if lines == nil {
		lines = []cart.Item{}
	}
	items, err = json.Marshal(lines)
	if err != nil {
		return nil, nil, err
	}
	if c.AppliedCoupon != nil {
		b, err := json.Marshal(c.AppliedCoupon)
		if err != nil {
			return nil, nil, err
		}
		coupon = b
	}
	return items, coupon, nil
}

func scanCartRow(row rowScanner) (*cart.Cart, bool, error) {
	var (
		c         cart.Cart
		userID    sql.NullString
		sessionID sql.NullString
		items     []byte
		coupon    []byte
		status    string
	)
	err := row.Scan(&c.ID, &userID, &sessionID, &items, &c.TotalAmount, &coupon, &status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Infrastructure(err)
	}

	c.UserID = userID.String
	c.SessionID = sessionID.String
	c.Status = cart.Status(status)
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, false, apperr.Infrastructure(err)
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	if len(coupon) > 0 {
		c.AppliedCoupon = &cart.AppliedCoupon{}
		if err := json.Unmarshal(coupon, c.AppliedCoupon); err != nil {
			return nil, false, apperr.Infrastructure(err)
		}
	}
	return &c, true, nil
}
