// Package redis provides a Redis implementation of the bridgekit Cache
// interface, used to short-circuit repeated GETs against slow legacy
// endpoints.
//
// Usage:
//
//	import (
//	    rediscache "github.com/madcok-co/bridgekit/contrib/cache/redis"
//	    goredis "github.com/redis/go-redis/v9"
//	)
//
//	rdb := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	cache := rediscache.NewDriver(rdb)
//	a := adapter.New(cfg, adapter.WithCache(cache))
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/madcok-co/bridgekit/pkg/contracts"
)

// Driver implements contracts.Cache using Redis.
type Driver struct {
	client *redis.Client
	prefix string
}

// Option configures the Driver.
type Option func(*Driver)

// WithPrefix sets a key prefix for all cache operations.
func WithPrefix(prefix string) Option {
	return func(d *Driver) {
		d.prefix = prefix
	}
}

// NewDriver creates a new Redis cache driver.
func NewDriver(client *redis.Client, opts ...Option) *Driver {
	d := &Driver{client: client}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Client returns the underlying Redis client.
func (d *Driver) Client() *redis.Client {
	return d.client
}

func (d *Driver) key(k string) string {
	if d.prefix == "" {
		return k
	}
	return d.prefix + ":" + k
}

// Get retrieves a cached payload.
func (d *Driver) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := d.client.Get(ctx, d.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, contracts.ErrCacheMiss
		}
		return nil, err
	}
	return val, nil
}

// Set stores a payload with TTL.
func (d *Driver) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return d.client.Set(ctx, d.key(key), value, ttl).Err()
}

// Delete removes a key.
func (d *Driver) Delete(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.key(key)).Err()
}

// Exists checks if a key exists.
func (d *Driver) Exists(ctx context.Context, key string) (bool, error) {
	result, err := d.client.Exists(ctx, d.key(key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
