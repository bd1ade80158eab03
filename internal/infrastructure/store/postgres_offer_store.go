package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/lib/pq"
)

var _ OfferRepository = (*PostgresOfferStore)(nil)

const offerColumns = `id, name, type, value, minimum_purchase_amount, start_date, end_date, is_active,
	usage_limit, used_count, applies_to, products_affected, categories_affected, coupon_code,
	buy_quantity, get_quantity, get_discount_percentage, users_allowed, max_uses_per_user,
	created_at, updated_at`

// PostgresOfferStore implements OfferRepository on the offers table.
type PostgresOfferStore struct {
	db *sql.DB
}

func NewPostgresOfferStore(db *sql.DB) *PostgresOfferStore {
	return &PostgresOfferStore{db: db}
}

func (s *PostgresOfferStore) FindByID(ctx context.Context, id string) (*offer.Offer, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Infrastructure(err)
	}
	return o, true, nil
}

func (s *PostgresOfferStore) ListActive(ctx context.Context, now time.Time) ([]*offer.Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE is_active AND start_date <= $1 AND end_date >= $1
		 ORDER BY start_date`,
		now,
	)
	if err != nil {
		return nil, apperr.Infrastructure(err)
	}
	defer rows.Close()

	offers := make([]*offer.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, apperr.Infrastructure(err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Infrastructure(err)
	}
	return offers, nil
}

func (s *PostgresOfferStore) Create(ctx context.Context, o *offer.Offer) (*offer.Offer, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO offers (`+offerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		o.ID,
		o.Name,
		string(o.Type),
		o.Value,
		o.MinimumPurchaseAmount,
		o.StartDate,
		o.EndDate,
		o.IsActive,
		nullInt(o.UsageLimit),
		o.UsedCount,
		string(o.AppliesTo),
		pq.Array(o.ProductsAffected),
		pq.Array(o.CategoriesAffected),
		nullString(o.CouponCode),
		nullInt(o.BuyQuantity),
		nullInt(o.GetQuantity),
		o.GetDiscountPercentage,
		pq.Array(o.UsersAllowed),
		nullInt(o.MaxUsesPerUser),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return nil, offerWriteError(err)
	}
	return o, nil
}

func (s *PostgresOfferStore) Update(ctx context.Context, o *offer.Offer) (*offer.Offer, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE offers SET name = $2, type = $3, value = $4, minimum_purchase_amount = $5,
		 start_date = $6, end_date = $7, is_active = $8, usage_limit = $9, used_count = $10,
		 applies_to = $11, products_affected = $12, categories_affected = $13, coupon_code = $14,
		 buy_quantity = $15, get_quantity = $16, get_discount_percentage = $17, users_allowed = $18,
		 max_uses_per_user = $19, updated_at = $20
		 WHERE id = $1`,
		o.ID,
		o.Name,
		string(o.Type),
		o.Value,
		o.MinimumPurchaseAmount,
		o.StartDate,
		o.EndDate,
		o.IsActive,
		nullInt(o.UsageLimit),
		o.UsedCount,
		string(o.AppliesTo),
		pq.Array(o.ProductsAffected),
		pq.Array(o.CategoriesAffected),
		nullString(o.CouponCode),
		nullInt(o.BuyQuantity),
		nullInt(o.GetQuantity),
		o.GetDiscountPercentage,
		pq.Array(o.UsersAllowed),
		nullInt(o.MaxUsesPerUser),
		o.UpdatedAt,
	)
	if err != nil {
		return nil, offerWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Infrastructure(err)
	}
	if n == 0 {
		return nil, offer.ErrOfferNotFound
	}
	return o, nil
}

// IncrementUsage does the limit check and the increment in one conditional
// UPDATE so concurrent redemptions cannot overshoot the limit.
func (s *PostgresOfferStore) IncrementUsage(ctx context.Context, id string, at time.Time) (*offer.Offer, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE offers SET used_count = used_count + 1, updated_at = $2
		 WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
		 RETURNING `+offerColumns,
		id, at,
	)
	o, err := scanOffer(row)
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, apperr.Infrastructure(err)
	}

	// Nothing updated: either the offer is saturated or it does not exist.
	current, ok, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, offer.ErrOfferNotFound
	}
	return current, false, nil
}

func (s *PostgresOfferStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return false, apperr.Infrastructure(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Infrastructure(err)
	}
	return n > 0, nil
}

func offerWriteError(err error) error {
	if constraint, ok := uniqueConstraint(err); ok {
		if constraint == "offers_pkey" {
			return ErrDuplicateID
		}
		return offer.ErrDuplicateCouponCode
	}
	return apperr.Infrastructure(err)
}

func scanOffer(row rowScanner) (*offer.Offer, error) {
	var (
		o              offer.Offer
		typ, appliesTo string
		usageLimit     sql.NullInt64
		buyQuantity    sql.NullInt64
		getQuantity    sql.NullInt64
		maxUsesPerUser sql.NullInt64
		couponCode     sql.NullString
	)
	err := row.Scan(
		&o.ID,
		&o.Name,
		&typ,
		&o.Value,
		&o.MinimumPurchaseAmount,
		&o.StartDate,
		&o.EndDate,
		&o.IsActive,
		&usageLimit,
		&o.UsedCount,
		&appliesTo,
		pq.Array(&o.ProductsAffected),
		pq.Array(&o.CategoriesAffected),
		&couponCode,
		&buyQuantity,
		&getQuantity,
		&o.GetDiscountPercentage,
		pq.Array(&o.UsersAllowed),
		&maxUsesPerUser,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Type = offer.Type(typ)
	o.AppliesTo = offer.Scope(appliesTo)
	o.UsageLimit = intFromNull(usageLimit)
	o.BuyQuantity = intFromNull(buyQuantity)
	o.GetQuantity = intFromNull(getQuantity)
	o.MaxUsesPerUser = intFromNull(maxUsesPerUser)
	o.CouponCode = couponCode.String
	return &o, nil
}
