package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
)

// Cache provides thread-safe in-memory caching with TTL. The survey service
// uses it to avoid regenerating centerline sample sets, which for long
// pipeline routes at tight intervals run to hundreds of thousands of points.
type Cache struct {
	entries map[string]*Entry
	mutex   sync.RWMutex
}

// Entry is a cached item with metadata.
type Entry struct {
	Key       string        `json:"key"`
	Data      []byte        `json:"data"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	TTL       time.Duration `json:"ttl"`
	Source    string        `json:"source"`
}

// Stats summarizes cache usage.
type Stats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
}

// New creates an empty in-memory cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
	}
}

// Set stores data under key with the given TTL. Data is serialized to JSON.
func (c *Cache) Set(key string, data interface{}, ttl time.Duration, source string) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data for cache: %w", err)
	}

	now := time.Now()
	entry := &Entry{
		Key:       key,
		Data:      jsonData,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		TTL:       ttl,
		Source:    source,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = entry
	return nil
}

// Get retrieves data from the cache if present and fresh.
func (c *Cache) Get(key string, result interface{}) (bool, error) {
	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists || c.IsStale(key) {
		return false, nil
	}

	if err := json.Unmarshal(entry.Data, result); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return true, nil
}

// IsStale reports whether the entry is missing or past its expiration.
func (c *Cache) IsStale(key string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return true
	}
	return time.Now().After(entry.ExpiresAt)
}

// Delete removes an entry from the cache.
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]*Entry)
}

// Keys returns all cache keys.
func (c *Cache) Keys() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Stats returns cache usage statistics.
func (c *Cache) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := time.Now()
	stats := Stats{TotalEntries: len(c.entries)}
	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			stats.StaleEntries++
		} else {
			stats.FreshEntries++
		}
	}
	return stats
}

// CleanupStale removes all stale entries and returns how many were dropped.
func (c *Cache) CleanupStale() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	var removed int
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartPeriodicCleanup starts a goroutine that periodically evicts stale
// entries.
func (c *Cache) StartPeriodicCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err, _ := errors.ParseStack(debug.Stack())
				skipFrames := 3
				numFrames := 5
				logging.Errorw(ctx, "Cache cleanup: recovered from panic",
					"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.CleanupStale()
			}
		}
	}()
}

// Centerline sample caching

// SampleKey builds the cache key for a route's generated centerline samples
// at a given interval.
func SampleKey(routeID string, intervalMeters float64) string {
	return fmt.Sprintf("samples:%s:%gm", routeID, intervalMeters)
}

// SetSamples caches a generated sample set for a route and interval.
func (c *Cache) SetSamples(routeID string, intervalMeters float64, samples interface{}, ttl time.Duration) error {
	return c.Set(SampleKey(routeID, intervalMeters), samples, ttl, "centerline_samples")
}

// GetSamples retrieves a cached sample set for a route and interval.
func (c *Cache) GetSamples(routeID string, intervalMeters float64, result interface{}) (bool, error) {
	return c.Get(SampleKey(routeID, intervalMeters), result)
}
