package store

import (
	"context"
	"database/sql"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/example/ec-cart-offers/internal/domain/offer"
)

var _ RedemptionLedger = (*PostgresRedemptionLedger)(nil)

// PostgresRedemptionLedger keeps one row per redemption in offer_redemptions.
type PostgresRedemptionLedger struct {
	db *sql.DB
}

func NewPostgresRedemptionLedger(db *sql.DB) *PostgresRedemptionLedger {
	return &PostgresRedemptionLedger{db: db}
}

func (l *PostgresRedemptionLedger) Record(ctx context.Context, r offer.Redemption) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO offer_redemptions (id, offer_id, user_id, cart_id, redeemed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		r.ID, r.OfferID, r.UserID, nullString(r.CartID), r.RedeemedAt,
	)
	if err != nil {
		return apperr.Infrastructure(err)
	}
	return nil
}

func (l *PostgresRedemptionLedger) CountByUser(ctx context.Context, offerID, userID string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM offer_redemptions WHERE offer_id = $1 AND user_id = $2`,
		offerID, userID,
	).Scan(&n)
	if err != nil {
		return 0, apperr.Infrastructure(err)
	}
	return n, nil
}
