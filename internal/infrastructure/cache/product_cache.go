package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/ec-cart-offers/internal/domain/product"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
	"github.com/example/ec-cart-offers/internal/logger"
	"github.com/redis/go-redis/v9"
)

var _ store.ProductLookup = (*ProductCache)(nil)

const keyPrefix = "product:"

// RedisClient is the part of the go-redis client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// ProductCache is a read-through ProductLookup. Misses and Redis failures
// fall through to next; Redis failures never fail a lookup.
type ProductCache struct {
	rdb  RedisClient
	next store.ProductLookup
	ttl  time.Duration
	log  *logger.Logger
}

func NewProductCache(rdb RedisClient, next store.ProductLookup, ttl time.Duration, log *logger.Logger) *ProductCache {
	return &ProductCache{
		rdb:  rdb,
		next: next,
		ttl:  ttl,
		log:  log.Component("ProductCache"),
	}
}

func (c *ProductCache) FindByID(ctx context.Context, id string) (*product.Product, bool, error) {
	key := keyPrefix + id

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p product.Product
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, true, nil
		}
		c.log.Warn("dropping undecodable cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("redis get failed", "key", key, "error", err)
	}

	p, ok, err := c.next.FindByID(ctx, id)
	if err != nil || !ok {
		return p, ok, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return p, true, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("redis set failed", "key", key, "error", err)
	}
	return p, true, nil
}
