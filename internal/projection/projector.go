package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/example/ec-cart-offers/internal/event"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
	"github.com/example/ec-cart-offers/internal/logger"
)

// Projector keeps the redemption ledger in step with OfferRedeemed events.
// Every other event is acknowledged and ignored.
type Projector struct {
	ledger store.RedemptionLedger
	log    *logger.Logger
}

func NewProjector(ledger store.RedemptionLedger, log *logger.Logger) *Projector {
	return &Projector{ledger: ledger, log: log.Component("Projector")}
}

// HandleEvent matches kafka.MessageHandler.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var e event.Event
	if err := json.Unmarshal(value, &e); err != nil {
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	p.log.Debug("received event", "event_type", e.EventType, "aggregate_type", e.AggregateType, "aggregate_id", e.AggregateID)

	if e.AggregateType != offer.AggregateType {
		return nil
	}

	switch e.EventType {
	case offer.EventOfferRedeemed:
		return p.handleOfferRedeemed(ctx, e)
	}
	return nil
}

func (p *Projector) handleOfferRedeemed(ctx context.Context, e event.Event) error {
	var data offer.OfferRedeemed
	if err := e.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode %s: %w", e.EventType, err)
	}

	// The envelope id stands in when the payload carries no redemption id.
	id := data.RedemptionID
	if id == "" {
		id = e.ID
	}

	if err := p.ledger.Record(ctx, offer.Redemption{
		ID:         id,
		OfferID:    data.OfferID,
		UserID:     data.UserID,
		CartID:     data.CartID,
		RedeemedAt: data.RedeemedAt,
	}); err != nil {
		return err
	}

	p.log.Info("redemption recorded", "offer_id", data.OfferID, "user_id", data.UserID, "used_count", data.UsedCount)
	return nil
}
