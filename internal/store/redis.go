package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/csvstats/internal/profile"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures RedisCache.
type RedisOptions struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key (e.g., "csvstats:analytics:")
	Prefix string

	// TTL is the expiry set on every result
	TTL time.Duration

	// Timeout bounds each Redis operation
	Timeout time.Duration
}

// RedisCache stores results as JSON strings with an expiry.
type RedisCache struct {
	opts   RedisOptions
	client *redis.Client
}

// NewRedisCache connects and pings Redis.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	c := &RedisCache{opts: opts, client: client}
	if err := c.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: connect %s: %w", opts.Addr, err)
	}
	return c, nil
}

func (c *RedisCache) key(id string) string {
	return c.opts.Prefix + id
}

// Set writes result under id with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, id string, result *profile.AnalysisResult) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis: marshal result %s: %w", id, err)
	}
	if err := c.client.Set(ctx, c.key(id), data, c.opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", id, err)
	}
	return nil
}

// Get reads the result for id, or ErrNotFound once it has expired.
func (c *RedisCache) Get(ctx context.Context, id string) (*profile.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", id, err)
	}

	var result profile.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("redis: unmarshal result %s: %w", id, err)
	}
	return &result, nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
