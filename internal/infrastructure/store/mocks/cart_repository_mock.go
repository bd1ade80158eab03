package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
)

var _ store.CartRepository = (*MockCartRepository)(nil)

// MockCartRepository is a CartRepository for testing. Behaviour comes from
// an in-memory store; every call is recorded and each method can be made
// to fail.
type MockCartRepository struct {
	mu    sync.Mutex
	inner *store.MemoryCartStore

	FindByIDCalls    []string
	FindByOwnerCalls []cart.Owner
	CreateCalls      []*cart.Cart
	UpdateCalls      []*cart.Cart
	DeleteCalls      []string

	FindErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// CreateCallback replaces Create when set.
	CreateCallback func(ctx context.Context, c *cart.Cart) (*cart.Cart, error)
}

// NewMockCartRepository creates a new MockCartRepository
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{inner: store.NewMemoryCartStore()}
}

// Seed stores c without recording a call.
func (m *MockCartRepository) Seed(c *cart.Cart) {
	if _, err := m.inner.Create(context.Background(), c); err != nil {
		panic(err)
	}
}

// Writes returns the number of Create and Update calls.
func (m *MockCartRepository) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CreateCalls) + len(m.UpdateCalls)
}

func (m *MockCartRepository) FindByID(ctx context.Context, id string) (*cart.Cart, bool, error) {
	m.mu.Lock()
	m.FindByIDCalls = append(m.FindByIDCalls, id)
	err := m.FindErr
	m.mu.Unlock()

	if err != nil {
		return nil, false, err
	}
	return m.inner.FindByID(ctx, id)
}

func (m *MockCartRepository) FindByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, bool, error) {
	m.mu.Lock()
	m.FindByOwnerCalls = append(m.FindByOwnerCalls, owner)
	err := m.FindErr
	m.mu.Unlock()

	if err != nil {
		return nil, false, err
	}
	return m.inner.FindByOwner(ctx, owner)
}

func (m *MockCartRepository) Create(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, c.Clone())
	err, callback := m.CreateErr, m.CreateCallback
	m.mu.Unlock()

	if callback != nil {
		return callback(ctx, c)
	}
	if err != nil {
		return nil, err
	}
	return m.inner.Create(ctx, c)
}

func (m *MockCartRepository) Update(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, c.Clone())
	err := m.UpdateErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.inner.Update(ctx, c)
}

func (m *MockCartRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	err := m.DeleteErr
	m.mu.Unlock()

	if err != nil {
		return false, err
	}
	return m.inner.Delete(ctx, id)
}
