package command

import (
	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/shopspring/decimal"
)

// Cart Commands
type AddToCart struct {
	UserID    string       `json:"user_id,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
	ProductID string       `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Variant   cart.Variant `json:"variant,omitempty"`
}

type RemoveFromCart struct {
	UserID    string       `json:"user_id,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
	ProductID string       `json:"product_id"`
	Variant   cart.Variant `json:"variant,omitempty"`
}

type ClearCart struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Offer Commands

// CreateOffer carries dates as strings; they are parsed as ISO-8601
// timestamps or plain dates (UTC).
type CreateOffer struct {
	Name                  string           `json:"name"`
	Type                  offer.Type       `json:"type"`
	Value                 *decimal.Decimal `json:"value"`
	MinimumPurchaseAmount *decimal.Decimal `json:"minimum_purchase_amount,omitempty"`
	StartDate             string           `json:"start_date"`
	EndDate               string           `json:"end_date"`
	IsActive              *bool            `json:"is_active,omitempty"`
	UsageLimit            *int             `json:"usage_limit,omitempty"`
	AppliesTo             offer.Scope      `json:"applies_to,omitempty"`
	ProductsAffected      []string         `json:"products_affected,omitempty"`
	CategoriesAffected    []string         `json:"categories_affected,omitempty"`
	CouponCode            string           `json:"coupon_code,omitempty"`
	BuyQuantity           *int             `json:"buy_quantity,omitempty"`
	GetQuantity           *int             `json:"get_quantity,omitempty"`
	GetDiscountPercentage *decimal.Decimal `json:"get_discount_percentage,omitempty"`
	UsersAllowed          []string         `json:"users_allowed,omitempty"`
	MaxUsesPerUser        *int             `json:"max_uses_per_user,omitempty"`
}

type RedeemOffer struct {
	OfferID string `json:"offer_id"`
	UserID  string `json:"user_id"`
	CartID  string `json:"cart_id,omitempty"`
}
