// Package summary caches generated book summaries for display.
//
// A summary is visible exactly when it is cached: toggling a cached summary
// hides it and drops the text, toggling an uncached one fetches it. Failed
// fetches are not cached, so the next toggle tries again.
package summary

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"booktrack/internal/service"
)

// Fetcher generates the summary of a book.
type Fetcher interface {
	FetchSummary(ctx context.Context, id string) (service.Summary, error)
}

// Cache holds the summaries currently shown.
type Cache struct {
	fetcher Fetcher
	group   singleflight.Group

	mu      sync.Mutex
	entries map[string]service.Summary
}

// New creates an empty cache backed by fetcher.
func New(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[string]service.Summary),
	}
}

// Toggle hides the summary of id if it is shown, or fetches and shows it.
// It returns the text and whether the summary is now visible. On error the
// cache is unchanged.
func (c *Cache) Toggle(ctx context.Context, id string) (string, bool, error) {
	if c.Hide(id) {
		return "", false, nil
	}
	s, err := c.fetch(ctx, id)
	if err != nil {
		return "", false, err
	}
	return s.Summary, true, nil
}

// Get returns the cached summary of id.
func (c *Cache) Get(id string) (service.Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[id]
	return s, ok
}

// Hide drops the summary of id and reports whether it was shown.
func (c *Cache) Hide(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	return true
}

// Visible returns the ids with a shown summary, sorted.
func (c *Cache) Visible() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Forget drops the summaries of ids, typically books no longer listed.
func (c *Cache) Forget(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
	}
}

// fetch shares one request among concurrent callers for the same id.
func (c *Cache) fetch(ctx context.Context, id string) (service.Summary, error) {
	v, err, _ := c.group.Do(id, func() (any, error) {
		s, err := c.fetcher.FetchSummary(ctx, id)
		if err != nil {
			return service.Summary{}, err
		}
		c.mu.Lock()
		c.entries[id] = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return service.Summary{}, err
	}
	return v.(service.Summary), nil
}
