// Package redis is a thin key/value wrapper over go-redis.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("key not found")

type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type Client struct {
	client *redis.Client
}

// New creates a new Redis client
func New(opts Options) *Client {
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 100
	}
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Password:     opts.Password,
			DB:           opts.DB,
			PoolSize:     poolSize,
			MinIdleConns: 10,
		}),
	}
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get retrieves a key's value. A missing key yields ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

// Set sets a key's value. Zero ttl keeps the key until deleted.
func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Del deletes a key
func (c *Client) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
