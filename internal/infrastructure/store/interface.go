package store

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/example/ec-cart-offers/internal/domain/product"
)

var (
	ErrCartNotFound  = fmt.Errorf("%w: cart not found", apperr.ErrNotFound)
	ErrDuplicateCart = fmt.Errorf("%w: a cart already exists for this owner", apperr.ErrConflict)
	ErrDuplicateID   = fmt.Errorf("%w: id already exists", apperr.ErrConflict)
)

// CartRepository persists carts. Find methods return ok=false when nothing
// matches. Update fails with ErrCartNotFound when the id is unknown.
type CartRepository interface {
	FindByID(ctx context.Context, id string) (*cart.Cart, bool, error)
	FindByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, bool, error)
	Create(ctx context.Context, c *cart.Cart) (*cart.Cart, error)
	Update(ctx context.Context, c *cart.Cart) (*cart.Cart, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// OfferRepository persists offers. Update fails with offer.ErrOfferNotFound
// when the id is unknown; Create fails with offer.ErrDuplicateCouponCode
// when the coupon code is taken.
type OfferRepository interface {
	FindByID(ctx context.Context, id string) (*offer.Offer, bool, error)
	// ListActive returns active offers whose window contains now. Usage is
	// not considered.
	ListActive(ctx context.Context, now time.Time) ([]*offer.Offer, error)
	Create(ctx context.Context, o *offer.Offer) (*offer.Offer, error)
	Update(ctx context.Context, o *offer.Offer) (*offer.Offer, error)
	// IncrementUsage counts one use as a single atomic check-and-increment.
	// It returns the stored offer and false when the limit is already
	// reached, and offer.ErrOfferNotFound when the id is unknown.
	IncrementUsage(ctx context.Context, id string, at time.Time) (*offer.Offer, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ProductLookup resolves catalog products for cart snapshots.
type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*product.Product, bool, error)
}

// RedemptionLedger records who redeemed which offer. Record is idempotent
// on the redemption id.
type RedemptionLedger interface {
	Record(ctx context.Context, r offer.Redemption) error
	CountByUser(ctx context.Context, offerID, userID string) (int, error)
}
