// Package rediscache implements the fetch cache on Redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/JakeFAU/productscraper/internal/crawler"
)

// Config addresses a Redis server.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Cache stores page bodies as Redis strings with a native expiry.
type Cache struct {
	client goredis.Cmdable
}

var _ crawler.Cache = (*Cache)(nil)

// New wraps an existing client.
func New(client goredis.Cmdable) *Cache {
	return &Cache{client: client}
}

// Connect dials Redis and verifies the connection with PING. The returned
// client must be closed by the caller.
func Connect(ctx context.Context, cfg Config) (*Cache, *goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return New(client), client, nil
}

// Get returns the stored value. A missing or expired key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value with the given expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
