package browser

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/slmtnm/s4view/internal/metrics"
)

// Fetcher returns folder listings from the cache or the storage API.
type Fetcher struct {
	storage Storage
	cache   *ListingCache
	log     *zap.Logger

	// Collapses concurrent requests for the same uncached slug.
	inflight singleflight.Group
}

// NewFetcher creates a fetcher that fills cache from storage.
func NewFetcher(storage Storage, cache *ListingCache, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		storage: storage,
		cache:   cache,
		log:     log,
	}
}

// Cache returns the listing cache the fetcher fills.
func (f *Fetcher) Cache() *ListingCache {
	return f.cache
}

// Fetch returns the listing of path. A cached listing is returned without any
// I/O; otherwise the storage API is queried once and the result cached.
// Failures are returned as *APIError and leave the cache untouched.
func (f *Fetcher) Fetch(ctx context.Context, path string) (Listing, error) {
	slug := Normalize(path)
	if l, ok := f.cache.Get(slug); ok {
		metrics.RecordCacheLookup(true)
		return l, nil
	}
	metrics.RecordCacheLookup(false)

	v, err, shared := f.inflight.Do(slug, func() (any, error) {
		// A request that finished between the lookup above and Do.
		if l, ok := f.cache.Get(slug); ok {
			return l, nil
		}
		return f.query(ctx, path, slug)
	})
	if err != nil {
		return Listing{}, err
	}
	if shared {
		f.log.Debug("joined in-flight request", zap.String("path", path))
	}
	return v.(Listing), nil
}

func (f *Fetcher) query(ctx context.Context, path, slug string) (Listing, error) {
	f.log.Debug("API query", zap.String("path", path), zap.String("slug", slug))

	start := time.Now()
	entries, err := f.storage.ListFolder(ctx, path, true)
	metrics.RecordListFolder(err, time.Since(start))
	if err != nil {
		f.log.Error("list folder failed", zap.String("path", path), zap.Error(err))
		return Listing{}, &APIError{Op: "list_folder", Path: path, Err: err}
	}

	l := Partition(entries)
	f.cache.Put(slug, l)
	f.log.Debug("API response",
		zap.String("path", path),
		zap.Int("folders", len(l.Folders)),
		zap.Int("files", len(l.Files)))
	return l, nil
}
