package cart

import (
	"fmt"
	"time"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/shopspring/decimal"
)

const AggregateType = "Cart"

var (
	ErrInvalidOwner    = fmt.Errorf("%w: cart must be associated with a user id or a session id", apperr.ErrValidation)
	ErrMissingOwner    = fmt.Errorf("%w: a user id or session id is required to add items to a cart", apperr.ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: product id and a positive quantity are required", apperr.ErrValidation)
	ErrMissingProduct  = fmt.Errorf("%w: product id is required", apperr.ErrValidation)
)

// now is swapped in tests that need deterministic timestamps.
var now = time.Now

type Status string

const (
	StatusActive    Status = "active"
	StatusAbandoned Status = "abandoned"
	StatusConverted Status = "converted"
)

// Owner identifies whose cart it is. UserID wins over SessionID when both
// are present.
type Owner struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (o Owner) IsZero() bool {
	return o.UserID == "" && o.SessionID == ""
}

// Key returns the single identity the cart is looked up by.
func (o Owner) Key() string {
	if o.UserID != "" {
		return "user:" + o.UserID
	}
	if o.SessionID != "" {
		return "session:" + o.SessionID
	}
	return ""
}

type Item struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	ImageURL         string          `json:"image_url,omitempty"`
	Quantity         int             `json:"quantity"`
	PriceAtAddToCart decimal.Decimal `json:"price_at_add_to_cart"`
	Variant          Variant         `json:"variant,omitempty"`
}

func (i Item) key() string {
	return i.ProductID + "\x00" + i.Variant.Key()
}

// AppliedCoupon is a value snapshot of a redeemed offer. It never points
// back at the Offer.
type AppliedCoupon struct {
	CouponCode     string          `json:"coupon_code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type Cart struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	Items         []Item          `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AppliedCoupon *AppliedCoupon  `json:"applied_coupon,omitempty"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// New creates an empty active cart for owner.
func New(id string, owner Owner) (*Cart, error) {
	if owner.IsZero() {
		return nil, ErrInvalidOwner
	}
	ts := now()
	return &Cart{
		ID:          id,
		UserID:      owner.UserID,
		SessionID:   owner.SessionID,
		Items:       []Item{},
		TotalAmount: decimal.Zero,
		Status:      StatusActive,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

func (c *Cart) Owner() Owner {
	return Owner{UserID: c.UserID, SessionID: c.SessionID}
}

// AddItem merges item into the cart. Lines are keyed by product id and
// variant; merging only adds quantity and keeps the first price and display
// snapshot.
func (c *Cart) AddItem(item Item) {
	item.Variant = item.Variant.normalize()
	key := item.key()

	merged := false
	for i := range c.Items {
		if c.Items[i].key() == key {
			c.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, item)
	}

	c.RecalculateTotal()
	c.UpdatedAt = now()
}

// LineQuantity returns the quantity of the line keyed by productID and
// variant, or 0 when there is none.
func (c *Cart) LineQuantity(productID string, variant Variant) int {
	key := Item{ProductID: productID, Variant: variant.normalize()}.key()
	for _, it := range c.Items {
		if it.key() == key {
			return it.Quantity
		}
	}
	return 0
}

// RemoveItem drops every line matching productID and variant. A nil variant
// only matches lines without one. Removing nothing is not an error.
func (c *Cart) RemoveItem(productID string, variant Variant) {
	key := Item{ProductID: productID, Variant: variant.normalize()}.key()

	kept := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.key() != key {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(c.Items) {
		return
	}

	c.Items = kept
	c.RecalculateTotal()
	c.UpdatedAt = now()
}

// RecalculateTotal sets TotalAmount to the sum of quantity × price. It does
// not validate the lines.
func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.PriceAtAddToCart.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.TotalAmount = total
}

func (c *Cart) Clear() {
	c.Items = []Item{}
	c.TotalAmount = decimal.Zero
	c.UpdatedAt = now()
}

// Clone returns a deep copy so stores never share item slices or variant
// maps with callers.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = make([]Item, len(c.Items))
	for i, it := range c.Items {
		it.Variant = it.Variant.normalize()
		out.Items[i] = it
	}
	if c.AppliedCoupon != nil {
		coupon := *c.AppliedCoupon
		out.AppliedCoupon = &coupon
	}
	return &out
}
