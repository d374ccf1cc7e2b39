// README: Redis cache-aside layer for catalog reads.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyProductList   = "catalog:products"
	keyProductPrefix = "catalog:product:"
)

// errCacheMiss is returned when a key is absent.
var errCacheMiss = errors.New("cache miss")

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func productKey(id int64) string {
	return keyProductPrefix + strconv.FormatInt(id, 10)
}

func (c *Cache) GetList(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, keyProductList, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Cache) SetList(ctx context.Context, products []Product) error {
	return c.set(ctx, keyProductList, products)
}

func (c *Cache) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	if err := c.get(ctx, productKey(id), &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *Cache) SetProduct(ctx context.Context, p Product) error {
	return c.set(ctx, productKey(p.ID), p)
}

func (c *Cache) get(ctx context.Context, key string, dst any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return errCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (c *Cache) set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}
