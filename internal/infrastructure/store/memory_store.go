package store

import (
	"context"
	"sync"
	"time"

	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/example/ec-cart-offers/internal/domain/offer"
	"github.com/example/ec-cart-offers/internal/domain/product"
)

var (
	_ CartRepository   = (*MemoryCartStore)(nil)
	_ OfferRepository  = (*MemoryOfferStore)(nil)
	_ ProductLookup    = (*MemoryProductStore)(nil)
	_ RedemptionLedger = (*MemoryRedemptionLedger)(nil)
)

// MemoryCartStore is an in-memory CartRepository. It keeps one cart per
// owner key and hands out clones so callers never share state with it.
type MemoryCartStore struct {
	mu      sync.RWMutex
	carts   map[string]*cart.Cart // id -> cart
	byOwner map[string]string     // owner key -> id
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		carts:   make(map[string]*cart.Cart),
		byOwner: make(map[string]string),
	}
}

func (s *MemoryCartStore) FindByID(_ context.Context, id string) (*cart.Cart, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[id]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (s *MemoryCartStore) FindByOwner(_ context.Context, owner cart.Owner) (*cart.Cart, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOwner[owner.Key()]
	if !ok {
		return nil, false, nil
	}
	return s.carts[id].Clone(), true, nil
}

func (s *MemoryCartStore) Create(_ context.Context, c *cart.Cart) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.carts[c.ID]; exists {
		return nil, ErrDuplicateID
	}
	key := c.Owner().Key()
	if _, exists := s.byOwner[key]; exists {
		return nil, ErrDuplicateCart
	}
	s.carts[c.ID] = c.Clone()
	s.byOwner[key] = c.ID
	return c.Clone(), nil
}

func (s *MemoryCartStore) Update(_ context.Context, c *cart.Cart) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.carts[c.ID]
	if !ok {
		return nil, ErrCartNotFound
	}
	oldKey, newKey := current.Owner().Key(), c.Owner().Key()
	if oldKey != newKey {
		if _, taken := s.byOwner[newKey]; taken {
			return nil, ErrDuplicateCart
		}
		delete(s.byOwner, oldKey)
		s.byOwner[newKey] = c.ID
	}
	s.carts[c.ID] = c.Clone()
	return c.Clone(), nil
}

func (s *MemoryCartStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[id]
	if !ok {
		return false, nil
	}
	delete(s.byOwner, c.Owner().Key())
	delete(s.carts, id)
	return true, nil
}

// MemoryOfferStore is an in-memory OfferRepository.
type MemoryOfferStore struct {
	mu      sync.RWMutex
	offers  map[string]*offer.Offer
	coupons map[string]string // coupon code -> id
}

func NewMemoryOfferStore() *MemoryOfferStore {
	return &MemoryOfferStore{
		offers:  make(map[string]*offer.Offer),
		coupons: make(map[string]string),
	}
}

func (s *MemoryOfferStore) FindByID(_ context.Context, id string) (*offer.Offer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, false, nil
	}
	return o.Clone(), true, nil
}

func (s *MemoryOfferStore) ListActive(_ context.Context, now time.Time) ([]*offer.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offers := make([]*offer.Offer, 0)
	for _, o := range s.offers {
		if o.IsValid(now) {
			offers = append(offers, o.Clone())
		}
	}
	return offers, nil
}

func (s *MemoryOfferStore) Create(_ context.Context, o *offer.Offer) (*offer.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offers[o.ID]; exists {
		return nil, ErrDuplicateID
	}
	if o.CouponCode != "" {
		if _, taken := s.coupons[o.CouponCode]; taken {
			return nil, offer.ErrDuplicateCouponCode
		}
		s.coupons[o.CouponCode] = o.ID
	}
	s.offers[o.ID] = o.Clone()
	return o.Clone(), nil
}

func (s *MemoryOfferStore) Update(_ context.Context, o *offer.Offer) (*offer.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.offers[o.ID]
	if !ok {
		return nil, offer.ErrOfferNotFound
	}
	if o.CouponCode != current.CouponCode {
		if owner, taken := s.coupons[o.CouponCode]; taken && owner != o.ID {
			return nil, offer.ErrDuplicateCouponCode
		}
		delete(s.coupons, current.CouponCode)
		if o.CouponCode != "" {
			s.coupons[o.CouponCode] = o.ID
		}
	}
	s.offers[o.ID] = o.Clone()
	return o.Clone(), nil
}

func (s *MemoryOfferStore) IncrementUsage(_ context.Context, id string, at time.Time) (*offer.Offer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, false, offer.ErrOfferNotFound
	}
	incremented := o.IncrementUsage(at)
	return o.Clone(), incremented, nil
}

func (s *MemoryOfferStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offers[id]
	if !ok {
		return false, nil
	}
	if o.CouponCode != "" {
		delete(s.coupons, o.CouponCode)
	}
	delete(s.offers, id)
	return true, nil
}

// MemoryProductStore is a ProductLookup backed by a map. Put seeds it.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[string]product.Product
}

func NewMemoryProductStore(products ...product.Product) *MemoryProductStore {
	s := &MemoryProductStore{products: make(map[string]product.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *MemoryProductStore) Put(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *MemoryProductStore) FindByID(_ context.Context, id string) (*product.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

// MemoryRedemptionLedger is an in-memory RedemptionLedger.
type MemoryRedemptionLedger struct {
	mu          sync.RWMutex
	redemptions map[string]offer.Redemption
}

func NewMemoryRedemptionLedger() *MemoryRedemptionLedger {
	return &MemoryRedemptionLedger{redemptions: make(map[string]offer.Redemption)}
}

func (l *MemoryRedemptionLedger) Record(_ context.Context, r offer.Redemption) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.redemptions[r.ID]; !seen {
		l.redemptions[r.ID] = r
	}
	return nil
}

func (l *MemoryRedemptionLedger) CountByUser(_ context.Context, offerID, userID string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, r := range l.redemptions {
		if r.OfferID == offerID && r.UserID == userID {
			n++
		}
	}
	return n, nil
}
