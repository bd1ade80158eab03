package command

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/example/ec-cart-offers/internal/domain/product"
	"github.com/example/ec-cart-offers/internal/event"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
	"github.com/example/ec-cart-offers/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Handler runs the write-side use cases. Each call is one short unit of
// work: validate, read, mutate one aggregate, write it once, then publish.
type Handler struct {
	carts     store.CartRepository
	offers    store.OfferRepository
	products  store.ProductLookup
	publisher event.Publisher
	log       *logger.Logger

	clock func() time.Time
	newID func() string
}

func NewHandler(
	carts store.CartRepository,
	offers store.OfferRepository,
	products store.ProductLookup,
	publisher event.Publisher,
	log *logger.Logger,
) *Handler {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &Handler{
		carts:     carts,
		offers:    offers,
		products:  products,
		publisher: publisher,
		log:       log.Component("Command"),
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// AddItemToCart adds a product snapshot to the owner's cart, creating the
// cart on first use. It performs exactly one repository write.
func (h *Handler) AddItemToCart(ctx context.Context, cmd AddToCart) (*cart.Cart, error) {
	owner := cart.Owner{UserID: cmd.UserID, SessionID: cmd.SessionID}
	if owner.IsZero() {
		return nil, cart.ErrMissingOwner
	}
	if cmd.ProductID == "" || cmd.Quantity <= 0 {
		return nil, cart.ErrInvalidQuantity
	}

	p, ok, err := h.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}

	c, found, err := h.carts.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !found {
		c, err = cart.New(h.newID(), owner)
		if err != nil {
			return nil, err
		}
	}

	if existing := c.LineQuantity(p.ID, cmd.Variant); existing > math.MaxInt-cmd.Quantity {
		return nil, cart.ErrInvalidQuantity
	}

	c.AddItem(cart.Item{
		ProductID:        p.ID,
		Name:             p.Name,
		ImageURL:         p.ImageURL,
		Quantity:         cmd.Quantity,
		PriceAtAddToCart: p.Price,
		Variant:          cmd.Variant,
	})

	var saved *cart.Cart
	if found {
		saved, err = h.carts.Update(ctx, c)
	} else {
		saved, err = h.carts.Create(ctx, c)
	}
	if err != nil {
		return nil, err
	}

	h.publish(ctx, saved.ID, cart.AggregateType, cart.EventItemAdded, cart.ItemAddedToCart{
		CartID:    saved.ID,
		UserID:    saved.UserID,
		SessionID: saved.SessionID,
		ProductID: p.ID,
		Variant:   cmd.Variant,
		Quantity:  cmd.Quantity,
		Price:     p.Price,
		NewCart:   !found,
		AddedAt:   saved.UpdatedAt,
	})
	return saved, nil
}

// RemoveFromCart drops the line matching product and variant. Removing a
// line that is not there returns the cart unchanged without a write.
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*cart.Cart, error) {
	owner := cart.Owner{UserID: cmd.UserID, SessionID: cmd.SessionID}
	if owner.IsZero() {
		return nil, cart.ErrMissingOwner
	}
	if cmd.ProductID == "" {
		return nil, cart.ErrMissingProduct
	}

	c, err := h.ownerCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	before := len(c.Items)
	c.RemoveItem(cmd.ProductID, cmd.Variant)
	if len(c.Items) == before {
		return c, nil
	}

	saved, err := h.carts.Update(ctx, c)
	if err != nil {
		return nil, err
	}

	h.publish(ctx, saved.ID, cart.AggregateType, cart.EventItemRemoved, cart.ItemRemovedFromCart{
		CartID:    saved.ID,
		UserID:    saved.UserID,
		SessionID: saved.SessionID,
		ProductID: cmd.ProductID,
		Variant:   cmd.Variant,
		RemovedAt: saved.UpdatedAt,
	})
	return saved, nil
}

// ClearCart empties the owner's cart. The cart itself is kept.
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) (*cart.Cart, error) {
	owner := cart.Owner{UserID: cmd.UserID, SessionID: cmd.SessionID}
	if owner.IsZero() {
		return nil, cart.ErrMissingOwner
	}

	c, err := h.ownerCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	c.Clear()
	saved, err := h.carts.Update(ctx, c)
	if err != nil {
		return nil, err
	}

	h.publish(ctx, saved.ID, cart.AggregateType, cart.EventCartCleared, cart.CartCleared{
		CartID:    saved.ID,
		UserID:    saved.UserID,
		SessionID: saved.SessionID,
		ClearedAt: saved.UpdatedAt,
	})
	return saved, nil
}

func (h *Handler) ownerCart(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	c, ok, err := h.carts.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrCartNotFound
	}
	return c, nil
}

// CreateOffer validates the input, assigns a fresh id and persists the
// offer.
func (h *Handler) CreateOffer(ctx context.Context, cmd CreateOffer) (*offer.Offer, error) {
	if cmd.Name == "" || cmd.Type == "" || cmd.Value == nil || cmd.StartDate == "" || cmd.EndDate == "" {
		return nil, offer.ErrMissingFields
	}

	start, err := parseDate(cmd.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(cmd.EndDate)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, offer.ErrInvalidDateRange
	}

	params := offer.Params{
		ID:                 h.newID(),
		Name:               cmd.Name,
		Type:               cmd.Type,
		Value:              cmd.Value,
		StartDate:          start,
		EndDate:            end,
		IsActive:           cmd.IsActive,
		UsageLimit:         cmd.UsageLimit,
		AppliesTo:          cmd.AppliesTo,
		ProductsAffected:   cmd.ProductsAffected,
		CategoriesAffected: cmd.CategoriesAffected,
		CouponCode:         cmd.CouponCode,
		BuyQuantity:        cmd.BuyQuantity,
		GetQuantity:        cmd.GetQuantity,
		UsersAllowed:       cmd.UsersAllowed,
		MaxUsesPerUser:     cmd.MaxUsesPerUser,
	}
	if cmd.MinimumPurchaseAmount != nil {
		params.MinimumPurchaseAmount = *cmd.MinimumPurchaseAmount
	}
	if cmd.GetDiscountPercentage != nil {
		params.GetDiscountPercentage = decimal.NewNullDecimal(*cmd.GetDiscountPercentage)
	}
	ts := h.clock()
	params.CreatedAt, params.UpdatedAt = ts, ts

	o, err := offer.New(params)
	if err != nil {
		return nil, err
	}

	saved, err := h.offers.Create(ctx, o)
	if err != nil {
		return nil, err
	}

	h.publish(ctx, saved.ID, offer.AggregateType, offer.EventOfferCreated, offer.OfferCreated{
		OfferID:    saved.ID,
		Name:       saved.Name,
		Type:       saved.Type,
		Value:      saved.Value,
		CouponCode: saved.CouponCode,
		StartDate:  saved.StartDate,
		EndDate:    saved.EndDate,
		UsageLimit: saved.UsageLimit,
		CreatedAt:  saved.CreatedAt,
	})
	return saved, nil
}

// RedeemOffer counts one use of a currently valid offer. A saturated offer
// is reported as (offer, false, nil).
//
// UsersAllowed and MaxUsesPerUser are stored but not enforced here; the
// redemption ledger only records uses.
func (h *Handler) RedeemOffer(ctx context.Context, cmd RedeemOffer) (*offer.Offer, bool, error) {
	if cmd.OfferID == "" || cmd.UserID == "" {
		return nil, false, offer.ErrMissingRedeemer
	}

	o, ok, err := h.offers.FindByID(ctx, cmd.OfferID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, offer.ErrOfferNotFound
	}

	at := h.clock()
	if !o.IsValid(at) {
		return nil, false, offer.ErrOfferNotValid
	}

	updated, incremented, err := h.offers.IncrementUsage(ctx, o.ID, at)
	if err != nil {
		return nil, false, err
	}
	if !incremented {
		return updated, false, nil
	}

	h.publish(ctx, updated.ID, offer.AggregateType, offer.EventOfferRedeemed, offer.OfferRedeemed{
		RedemptionID: h.newID(),
		OfferID:      updated.ID,
		UserID:       cmd.UserID,
		CartID:       cmd.CartID,
		UsedCount:    updated.UsedCount,
		RedeemedAt:   at,
	})
	return updated, true, nil
}

// publish sends the event after the write has succeeded. Failures are
// logged; the write is not undone.
func (h *Handler) publish(ctx context.Context, aggregateID, aggregateType, eventType string, data any) {
	e, err := event.New(aggregateID, aggregateType, eventType, data, h.clock())
	if err != nil {
		h.log.Error("failed to encode event", "event_type", eventType, "aggregate_id", aggregateID, "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, aggregateID, e); err != nil {
		h.log.Warn("failed to publish event", "event_type", eventType, "aggregate_id", aggregateID, "error", err)
	}
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", offer.ErrInvalidDate, s)
}
