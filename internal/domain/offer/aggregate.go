package offer

import (
	"fmt"
	"time"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/shopspring/decimal"
)

const AggregateType = "Offer"

var (
	ErrInvalidOffer        = fmt.Errorf("%w: invalid offer", apperr.ErrValidation)
	ErrInvalidDateRange    = fmt.Errorf("%w: offer end date must be after start date", apperr.ErrValidation)
	ErrMissingFields       = fmt.Errorf("%w: missing required offer data: name, type, value, startDate, endDate", apperr.ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: offer dates must be ISO-8601 timestamps", apperr.ErrValidation)
	ErrOfferNotValid       = fmt.Errorf("%w: offer is not currently valid", apperr.ErrValidation)
	ErrMissingRedeemer     = fmt.Errorf("%w: offer id and user id are required to redeem an offer", apperr.ErrValidation)
	ErrOfferNotFound       = fmt.Errorf("%w: offer not found", apperr.ErrNotFound)
	ErrDuplicateCouponCode = fmt.Errorf("%w: coupon code already in use", apperr.ErrConflict)
)

var now = time.Now

type Type string

const (
	TypePercentage   Type = "percentage"
	TypeFixedAmount  Type = "fixedAmount"
	TypeFreeShipping Type = "freeShipping"
	TypeBuyOneGetOne Type = "buyOneGetOne"
	TypeCouponCode   Type = "couponCode"
)

func (t Type) Valid() bool {
	switch t {
	case TypePercentage, TypeFixedAmount, TypeFreeShipping, TypeBuyOneGetOne, TypeCouponCode:
		return true
	}
	return false
}

// Scope says which products an offer applies to.
type Scope string

const (
	ScopeAllProducts        Scope = "allProducts"
	ScopeSpecificProducts   Scope = "specificProducts"
	ScopeSpecificCategories Scope = "specificCategories"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeAllProducts, ScopeSpecificProducts, ScopeSpecificCategories:
		return true
	}
	return false
}

type Offer struct {
	ID                    string              `json:"id"`
	Name                  string              `json:"name"`
	Type                  Type                `json:"type"`
	Value                 decimal.Decimal     `json:"value"`
	MinimumPurchaseAmount decimal.Decimal     `json:"minimum_purchase_amount"`
	StartDate             time.Time           `json:"start_date"`
	EndDate               time.Time           `json:"end_date"`
	IsActive              bool                `json:"is_active"`
	UsageLimit            *int                `json:"usage_limit"`
	UsedCount             int                 `json:"used_count"`
	AppliesTo             Scope               `json:"applies_to"`
	ProductsAffected      []string            `json:"products_affected"`
	CategoriesAffected    []string            `json:"categories_affected"`
	CouponCode            string              `json:"coupon_code,omitempty"`
	BuyQuantity           *int                `json:"buy_quantity,omitempty"`
	GetQuantity           *int                `json:"get_quantity,omitempty"`
	GetDiscountPercentage decimal.NullDecimal `json:"get_discount_percentage"`
	UsersAllowed          []string            `json:"users_allowed"`
	MaxUsesPerUser        *int                `json:"max_uses_per_user,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// Params carries the fields an Offer is built from. Nil pointers and zero
// values select the defaults.
type Params struct {
	ID                    string
	Name                  string
	Type                  Type
	Value                 *decimal.Decimal
	MinimumPurchaseAmount decimal.Decimal
	StartDate             time.Time
	EndDate               time.Time
	IsActive              *bool
	UsageLimit            *int
	UsedCount             int
	AppliesTo             Scope
	ProductsAffected      []string
	CategoriesAffected    []string
	CouponCode            string
	BuyQuantity           *int
	GetQuantity           *int
	GetDiscountPercentage decimal.NullDecimal
	UsersAllowed          []string
	MaxUsesPerUser        *int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// New validates p and builds an Offer with defaults applied: minimum
// purchase 0, active, unlimited usage, all products.
func New(p Params) (*Offer, error) {
	if p.ID == "" || p.Name == "" || p.Type == "" || p.Value == nil || p.StartDate.IsZero() || p.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: offer must have id, name, type, value, startDate, and endDate", ErrInvalidOffer)
	}
	if !p.StartDate.Before(p.EndDate) {
		return nil, ErrInvalidDateRange
	}
	if p.AppliesTo == "" {
		p.AppliesTo = ScopeAllProducts
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	ts := now()
	created, updated := p.CreatedAt, p.UpdatedAt
	if created.IsZero() {
		created = ts
	}
	if updated.IsZero() {
		updated = ts
	}

	return &Offer{
		ID:                    p.ID,
		Name:                  p.Name,
		Type:                  p.Type,
		Value:                 *p.Value,
		MinimumPurchaseAmount: p.MinimumPurchaseAmount,
		StartDate:             p.StartDate,
		EndDate:               p.EndDate,
		IsActive:              active,
		UsageLimit:            copyInt(p.UsageLimit),
		UsedCount:             p.UsedCount,
		AppliesTo:             p.AppliesTo,
		ProductsAffected:      copyStrings(p.ProductsAffected),
		CategoriesAffected:    copyStrings(p.CategoriesAffected),
		CouponCode:            p.CouponCode,
		BuyQuantity:           copyInt(p.BuyQuantity),
		GetQuantity:           copyInt(p.GetQuantity),
		GetDiscountPercentage: p.GetDiscountPercentage,
		UsersAllowed:          copyStrings(p.UsersAllowed),
		MaxUsesPerUser:        copyInt(p.MaxUsesPerUser),
		CreatedAt:             created,
		UpdatedAt:             updated,
	}, nil
}

func validate(p Params) error {
	hundred := decimal.NewFromInt(100)
	switch {
	case !p.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidOffer, p.Type)
	case !p.AppliesTo.Valid():
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidOffer, p.AppliesTo)
	case p.Value.IsNegative():
		return fmt.Errorf("%w: value must not be negative", ErrInvalidOffer)
	case p.MinimumPurchaseAmount.IsNegative():
		return fmt.Errorf("%w: minimum purchase amount must not be negative", ErrInvalidOffer)
	case p.UsageLimit != nil && *p.UsageLimit < 0:
		return fmt.Errorf("%w: usage limit must not be negative", ErrInvalidOffer)
	case p.UsedCount < 0:
		return fmt.Errorf("%w: used count must not be negative", ErrInvalidOffer)
	case p.BuyQuantity != nil && *p.BuyQuantity < 1:
		return fmt.Errorf("%w: buy quantity must be at least 1", ErrInvalidOffer)
	case p.GetQuantity != nil && *p.GetQuantity < 0:
		return fmt.Errorf("%w: get quantity must not be negative", ErrInvalidOffer)
	case p.GetDiscountPercentage.Valid && (p.GetDiscountPercentage.Decimal.IsNegative() || p.GetDiscountPercentage.Decimal.GreaterThan(hundred)):
		return fmt.Errorf("%w: get discount percentage must be between 0 and 100", ErrInvalidOffer)
	case p.MaxUsesPerUser != nil && *p.MaxUsesPerUser < 1:
		return fmt.Errorf("%w: max uses per user must be at least 1", ErrInvalidOffer)
	case p.Type == TypeCouponCode && p.CouponCode == "":
		return fmt.Errorf("%w: coupon code offers need a coupon code", ErrInvalidOffer)
	}
	return nil
}

// IsValid reports whether the offer is active and at is inside the
// inclusive [StartDate, EndDate] window. Usage limits are not considered.
func (o *Offer) IsValid(at time.Time) bool {
	return o.IsActive && !at.Before(o.StartDate) && !at.After(o.EndDate)
}

// Exhausted reports whether the usage limit has been reached.
func (o *Offer) Exhausted() bool {
	return o.UsageLimit != nil && o.UsedCount >= *o.UsageLimit
}

// IncrementUsage counts one use. It returns false and leaves the offer
// untouched once the limit is reached. Date validity is not checked here.
func (o *Offer) IncrementUsage(at time.Time) bool {
	if o.Exhausted() {
		return false
	}
	o.UsedCount++
	o.UpdatedAt = at
	return true
}

func (o *Offer) Clone() *Offer {
	out := *o
	out.UsageLimit = copyInt(o.UsageLimit)
	out.BuyQuantity = copyInt(o.BuyQuantity)
	out.GetQuantity = copyInt(o.GetQuantity)
	out.MaxUsesPerUser = copyInt(o.MaxUsesPerUser)
	out.ProductsAffected = copyStrings(o.ProductsAffected)
	out.CategoriesAffected = copyStrings(o.CategoriesAffected)
	out.UsersAllowed = copyStrings(o.UsersAllowed)
	return &out
}

// Redemption is one recorded use of an offer, kept by the redemption ledger.
type Redemption struct {
	ID         string    `json:"id"`
	OfferID    string    `json:"offer_id"`
	UserID     string    `json:"user_id"`
	CartID     string    `json:"cart_id,omitempty"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
