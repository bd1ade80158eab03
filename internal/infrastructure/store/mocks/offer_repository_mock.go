package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
)

var _ store.OfferRepository = (*MockOfferRepository)(nil)

// MockOfferRepository is an OfferRepository for testing backed by an
// in-memory store.
type MockOfferRepository struct {
	mu    sync.Mutex
	inner *store.MemoryOfferStore

	FindByIDCalls       []string
	ListActiveCalls     []time.Time
	CreateCalls         []*offer.Offer
	UpdateCalls         []*offer.Offer
	IncrementUsageCalls []string
	DeleteCalls         []string

	FindErr      error
	ListErr      error
	CreateErr    error
	UpdateErr    error
	IncrementErr error
	DeleteErr    error
}

// NewMockOfferRepository creates a new MockOfferRepository
func NewMockOfferRepository() *MockOfferRepository {
	return &MockOfferRepository{inner: store.NewMemoryOfferStore()}
}

// Seed stores o without recording a call.
func (m *MockOfferRepository) Seed(o *offer.Offer) {
	if _, err := m.inner.Create(context.Background(), o); err != nil {
		panic(err)
	}
}

func (m *MockOfferRepository) FindByID(ctx context.Context, id string) (*offer.Offer, bool, error) {
	m.mu.Lock()
	m.FindByIDCalls = append(m.FindByIDCalls, id)
	err := m.FindErr
	m.mu.Unlock()

	if err != nil {
		return nil, false, err
	}
	return m.inner.FindByID(ctx, id)
}

func (m *MockOfferRepository) ListActive(ctx context.Context, now time.Time) ([]*offer.Offer, error) {
	m.mu.Lock()
	m.ListActiveCalls = append(m.ListActiveCalls, now)
	err := m.ListErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.inner.ListActive(ctx, now)
}

func (m *MockOfferRepository) Create(ctx context.Context, o *offer.Offer) (*offer.Offer, error) {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, o.Clone())
	err := m.CreateErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.inner.Create(ctx, o)
}

func (m *MockOfferRepository) Update(ctx context.Context, o *offer.Offer) (*offer.Offer, error) {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, o.Clone())
	err := m.UpdateErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.inner.Update(ctx, o)
}

func (m *MockOfferRepository) IncrementUsage(ctx context.Context, id string, at time.Time) (*offer.Offer, bool, error) {
	m.mu.Lock()
	m.IncrementUsageCalls = append(m.IncrementUsageCalls, id)
	err := m.IncrementErr
	m.mu.Unlock()

	if err != nil {
		return nil, false, err
	}
	return m.inner.IncrementUsage(ctx, id, at)
}

func (m *MockOfferRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	err := m.DeleteErr
	m.mu.Unlock()

	if err != nil {
		return false, err
	}
	return m.inner.Delete(ctx, id)
}
