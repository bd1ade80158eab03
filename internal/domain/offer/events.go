package offer

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOfferCreated  = "OfferCreated"
	EventOfferRedeemed = "OfferRedeemed"
)

type OfferCreated struct {
	OfferID    string          `json:"offer_id"`
	Name       string          `json:"name"`
	Type       Type            `json:"type"`
	Value      decimal.Decimal `json:"value"`
	CouponCode string          `json:"coupon_code,omitempty"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	UsageLimit *int            `json:"usage_limit,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type OfferRedeemed struct {
	RedemptionID string    `json:"redemption_id"`
	OfferID      string    `json:"offer_id"`
	UserID       string    `json:"user_id"`
	CartID       string    `json:"cart_id,omitempty"`
	UsedCount    int       `json:"used_count"`
	RedeemedAt   time.Time `json:"redeemed_at"`
}
