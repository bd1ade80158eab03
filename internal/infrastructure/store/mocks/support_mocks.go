package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/example/ec-cart-offers/internal/domain/product"
	"github.com/example/ec-cart-offers/internal/event"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
)

var (
	_ store.ProductLookup    = (*MockProductLookup)(nil)
	_ store.RedemptionLedger = (*MockRedemptionLedger)(nil)
	_ event.Publisher        = (*MockPublisher)(nil)
)

// MockProductLookup serves products from a map.
type MockProductLookup struct {
	mu       sync.Mutex
	products map[string]product.Product

	FindCalls []string
	FindErr   error
}

// NewMockProductLookup creates a MockProductLookup seeded with products
func NewMockProductLookup(products ...product.Product) *MockProductLookup {
	m := &MockProductLookup{products: make(map[string]product.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

// Put adds or replaces a product.
func (m *MockProductLookup) Put(p product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MockProductLookup) FindByID(_ context.Context, id string) (*product.Product, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindCalls = append(m.FindCalls, id)
	if m.FindErr != nil {
		return nil, false, m.FindErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

// PublishCall records parameters passed to Publish
type PublishCall struct {
	Key   string
	Event any
}

// MockPublisher records published events.
type MockPublisher struct {
	mu sync.Mutex

	PublishCalls []PublishCall
	PublishErr   error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{PublishCalls: make([]PublishCall, 0)}
}

func (m *MockPublisher) Publish(_ context.Context, key string, e any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCalls = append(m.PublishCalls, PublishCall{Key: key, Event: e})
	return m.PublishErr
}

// Events returns the envelopes published so far.
func (m *MockPublisher) Events() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]event.Event, 0, len(m.PublishCalls))
	for _, c := range m.PublishCalls {
		if e, ok := c.Event.(event.Event); ok {
			out = append(out, e)
		}
	}
	return out
}

// MockRedemptionLedger records redemptions in memory.
type MockRedemptionLedger struct {
	mu    sync.Mutex
	inner *store.MemoryRedemptionLedger

	RecordCalls []offer.Redemption
	RecordErr   error
	CountErr    error
}

func NewMockRedemptionLedger() *MockRedemptionLedger {
	return &MockRedemptionLedger{inner: store.NewMemoryRedemptionLedger()}
}

func (m *MockRedemptionLedger) Record(ctx context.Context, r offer.Redemption) error {
	m.mu.Lock()
	m.RecordCalls = append(m.RecordCalls, r)
	err := m.RecordErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.Record(ctx, r)
}

func (m *MockRedemptionLedger) CountByUser(ctx context.Context, offerID, userID string) (int, error) {
	m.mu.Lock()
	err := m.CountErr
	m.mu.Unlock()

	if err != nil {
		return 0, err
	}
	return m.inner.CountByUser(ctx, offerID, userID)
}
