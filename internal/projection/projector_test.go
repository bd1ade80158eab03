package projection

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/example/ec-cart-offers/internal/event"
	"github.com/example/ec-cart-offers/internal/infrastructure/store/mocks"
	"github.com/example/ec-cart-offers/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector() (*Projector, *mocks.MockRedemptionLedger) {
	ledger := mocks.NewMockRedemptionLedger()
	return NewProjector(ledger, logger.NewNop()), ledger
}

func makeEvent(t *testing.T, aggregateType, eventType string, data any) []byte {
	t.Helper()
	e, err := event.New("agg-123", aggregateType, eventType, data, time.Now())
	require.NoError(t, err)
	result, err := json.Marshal(e)
	require.NoError(t, err)
	return result
}

// ============================================
// Offer Event Tests
// ============================================

func TestProjector_HandleOfferRedeemed(t *testing.T) {
	projector, ledger := newTestProjector()
	ctx := context.Background()
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	value := makeEvent(t, offer.AggregateType, offer.EventOfferRedeemed, offer.OfferRedeemed{
		RedemptionID: "r-1",
		OfferID:      "O1",
		UserID:       "u1",
		CartID:       "cart-1",
		UsedCount:    3,
		RedeemedAt:   at,
	})

	err := projector.HandleEvent(ctx, []byte("O1"), value)

	require.NoError(t, err)
	require.Len(t, ledger.RecordCalls, 1)
	r := ledger.RecordCalls[0]
	assert.Equal(t, "r-1", r.ID)
	assert.Equal(t, "cart-1", r.CartID)
	assert.True(t, at.Equal(r.RedeemedAt))

	n, err := ledger.CountByUser(ctx, "O1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProjector_RedeliveryIsIdempotent(t *testing.T) {
	projector, ledger := newTestProjector()
	ctx := context.Background()
	value := makeEvent(t, offer.AggregateType, offer.EventOfferRedeemed, offer.OfferRedeemed{
		RedemptionID: "r-1", OfferID: "O1", UserID: "u1",
	})

	require.NoError(t, projector.HandleEvent(ctx, nil, value))
	require.NoError(t, projector.HandleEvent(ctx, nil, value))

	n, err := ledger.CountByUser(ctx, "O1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProjector_MissingRedemptionIDFallsBackToEnvelopeID(t *testing.T) {
	projector, ledger := newTestProjector()

	value := makeEvent(t, offer.AggregateType, offer.EventOfferRedeemed, offer.OfferRedeemed{OfferID: "O1", UserID: "u1"})
	var envelope event.Event
	require.NoError(t, json.Unmarshal(value, &envelope))

	require.NoError(t, projector.HandleEvent(context.Background(), nil, value))

	require.Len(t, ledger.RecordCalls, 1)
	assert.Equal(t, envelope.ID, ledger.RecordCalls[0].ID)
}

func TestProjector_LedgerErrorIsReturned(t *testing.T) {
	projector, ledger := newTestProjector()
	ledger.RecordErr = errors.New("db down")

	value := makeEvent(t, offer.AggregateType, offer.EventOfferRedeemed, offer.OfferRedeemed{RedemptionID: "r-1", OfferID: "O1", UserID: "u1"})

	assert.Error(t, projector.HandleEvent(context.Background(), nil, value))
}

// ============================================
// Ignored / Malformed Event Tests
// ============================================

func TestProjector_IgnoresOtherEvents(t *testing.T) {
	projector, ledger := newTestProjector()
	ctx := context.Background()

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(t, offer.AggregateType, offer.EventOfferCreated, offer.OfferCreated{OfferID: "O1"})))
	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(t, cart.AggregateType, cart.EventItemAdded, cart.ItemAddedToCart{CartID: "c1"})))
	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(t, "Unknown", "Whatever", map[string]string{})))

	assert.Empty(t, ledger.RecordCalls)
}

func TestProjector_MalformedEnvelope(t *testing.T) {
	projector, ledger := newTestProjector()

	err := projector.HandleEvent(context.Background(), nil, []byte("not json"))

	assert.Error(t, err)
	assert.Empty(t, ledger.RecordCalls)
}

func TestProjector_MalformedPayload(t *testing.T) {
	projector, ledger := newTestProjector()
	value, err := json.Marshal(event.Event{
		ID:            "e1",
		AggregateType: offer.AggregateType,
		EventType:     offer.EventOfferRedeemed,
		Data:          json.RawMessage(`{"offer_id": 42}`),
	})
	require.NoError(t, err)

	err = projector.HandleEvent(context.Background(), nil, value)

	assert.Error(t, err)
	assert.Empty(t, ledger.RecordCalls)
}
