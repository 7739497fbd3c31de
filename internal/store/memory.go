package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/csvstats/internal/profile"
)

// MemoryCache is an in-process ResultCache for single-node deployments and
// tests. Entries are stored as JSON so callers never share mutable state.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryCache returns a cache whose entries expire after ttl.
// A non-positive ttl disables expiry.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Set stores result under id and sweeps expired entries.
func (c *MemoryCache) Set(_ context.Context, id string, result *profile.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("memory cache: marshal result %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
		}
	}

	var expires time.Time
	if c.ttl > 0 {
		expires = now.Add(c.ttl)
	}
	c.entries[id] = memoryEntry{data: data, expires: expires}
	return nil
}

// Get returns a copy of the result for id or ErrNotFound.
func (c *MemoryCache) Get(_ context.Context, id string) (*profile.AnalysisResult, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if ok && c.expired(e, c.now()) {
		delete(c.entries, id)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}

	var result profile.AnalysisResult
	if err := json.Unmarshal(e.data, &result); err != nil {
		return nil, fmt.Errorf("memory cache: unmarshal result %s: %w", id, err)
	}
	return &result, nil
}

func (c *MemoryCache) expired(e memoryEntry, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Ping always succeeds.
func (c *MemoryCache) Ping(context.Context) error { return nil }

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}
