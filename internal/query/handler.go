package query

import (
	"context"
	"time"

	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

type Handler struct {
	carts  store.CartRepository
	offers store.OfferRepository
	ledger store.RedemptionLedger
	clock  func() time.Time
}

func NewHandler(carts store.CartRepository, offers store.OfferRepository, ledger store.RedemptionLedger) *Handler {
	return &Handler{carts: carts, offers: offers, ledger: ledger, clock: time.Now}
}

// Cart

// GetCart returns the owner's cart. An owner without a cart gets an empty,
// unsaved cart with no id.
func (h *Handler) GetCart(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	if owner.IsZero() {
		return nil, cart.ErrMissingOwner
	}
	c, ok, err := h.carts.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &cart.Cart{
			UserID:      owner.UserID,
			SessionID:   owner.SessionID,
			Items:       []cart.Item{},
			TotalAmount: decimal.Zero,
			Status:      cart.StatusActive,
		}, nil
	}
	return c, nil
}

func (h *Handler) GetCartByID(ctx context.Context, id string) (*cart.Cart, error) {
	c, ok, err := h.carts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrCartNotFound
	}
	return c, nil
}

// Offers

func (h *Handler) GetOffer(ctx context.Context, id string) (*offer.Offer, error) {
	o, ok, err := h.offers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, offer.ErrOfferNotFound
	}
	return o, nil
}

// ListActiveOffers returns active offers whose window contains now. Usage
// is not considered.
func (h *Handler) ListActiveOffers(ctx context.Context) ([]*offer.Offer, error) {
	offers, err := h.offers.ListActive(ctx, h.clock())
	if err != nil {
		return nil, err
	}
	if offers == nil {
		offers = []*offer.Offer{}
	}
	return offers, nil
}

// RedemptionCount returns how many times userID has redeemed the offer
// according to the ledger.
func (h *Handler) RedemptionCount(ctx context.Context, offerID, userID string) (int, error) {
	if _, err := h.GetOffer(ctx, offerID); err != nil {
		return 0, err
	}
	return h.ledger.CountByUser(ctx, offerID, userID)
}
