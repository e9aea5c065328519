package browser

import (
	"sync"

	"github.com/slmtnm/s4view/internal/metrics"
)

// ListingCache maps slugs to folder listings for the lifetime of a session.
// Entries are never evicted.
type ListingCache struct {
	mu       sync.RWMutex
	listings map[string]Listing
}

// NewListingCache creates an empty cache.
func NewListingCache() *ListingCache {
	return &ListingCache{listings: make(map[string]Listing)}
}

// Get returns the listing stored under slug.
func (c *ListingCache) Get(slug string) (Listing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.listings[slug]
	return l, ok
}

// Has reports whether slug is cached.
func (c *ListingCache) Has(slug string) bool {
	_, ok := c.Get(slug)
	return ok
}

// Put stores a listing. A second Put for the same slug replaces the first.
func (c *ListingCache) Put(slug string, l Listing) {
	c.mu.Lock()
	c.listings[slug] = l
	n := len(c.listings)
	c.mu.Unlock()
	metrics.SetCacheEntries(n)
}

// Len returns the number of cached listings.
func (c *ListingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listings)
}
