package store

import (
	"context"
	"sync"

	"github.com/arunalla/relief-intake-api/internal/models"
)

// TimelineReader fetches the ordered history for a request.
type TimelineReader interface {
	Timeline(ctx context.Context, requestID string) ([]models.TimelineEntry, error)
}

// TimelineCache memoizes per-request timelines for the dashboard. Reads
// without intervening writes return the identical ordered slice; a
// confirmed field change invalidates the request's entry so the next read
// picks up the appended transition.
type TimelineCache struct {
	mu      sync.Mutex
	reader  TimelineReader
	entries map[string][]models.TimelineEntry
}

// NewTimelineCache constructs the cache.
func NewTimelineCache(reader TimelineReader) *TimelineCache {
	return &TimelineCache{reader: reader, entries: make(map[string][]models.TimelineEntry)}
}

// Get returns the cached timeline, fetching it on first access.
func (c *TimelineCache) Get(ctx context.Context, requestID string) ([]models.TimelineEntry, error) {
	c.mu.Lock()
	if cached, ok := c.entries[requestID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	entries, err := c.reader.Timeline(ctx, requestID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[requestID] = entries
	c.mu.Unlock()
	return entries, nil
}

// Invalidate drops the cached timeline for a request. Wired as the
// coordinator's RefreshFunc.
func (c *TimelineCache) Invalidate(requestID string) {
	c.mu.Lock()
	delete(c.entries, requestID)
	c.mu.Unlock()
}
