package browser

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/slmtnm/s4view/internal/metrics"
)

// Prefetch outcomes reported by Submit.
const (
	PrefetchQueued  = "queued"
	PrefetchCached  = "cached"
	PrefetchPending = "pending"
	PrefetchDropped = "dropped"
	PrefetchClosed  = "closed"
)

// Prefetcher warms the listing cache in the background with a fixed number of
// workers and a bounded queue. A slug is queued at most once at a time.
type Prefetcher struct {
	fetcher  *Fetcher
	log      *zap.Logger
	requests chan string
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	closed   atomic.Bool

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewPrefetcher starts workers goroutines fed by a queue of the given size.
func NewPrefetcher(fetcher *Fetcher, workers, queue int, log *zap.Logger) *Prefetcher {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = workers * 16
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Prefetcher{
		fetcher:  fetcher,
		log:      log,
		requests: make(chan string, queue),
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Prefetcher) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case path := <-p.requests:
			// Errors are logged by the fetcher; a later visit retries.
			_, _ = p.fetcher.Fetch(p.ctx, path)
			p.done(Normalize(path))
		}
	}
}

func (p *Prefetcher) done(slug string) {
	p.mu.Lock()
	delete(p.pending, slug)
	p.mu.Unlock()
}

// Submit queues a background fetch of path and reports whether it was queued.
// It never blocks.
func (p *Prefetcher) Submit(path string) bool {
	outcome := p.submit(path)
	metrics.RecordPrefetch(outcome)
	if outcome != PrefetchQueued && outcome != PrefetchCached {
		p.log.Debug("prefetch skipped", zap.String("path", path), zap.String("outcome", outcome))
	}
	return outcome == PrefetchQueued
}

func (p *Prefetcher) submit(path string) string {
	if p.closed.Load() {
		return PrefetchClosed
	}
	slug := Normalize(path)
	if p.fetcher.Cache().Has(slug) {
		return PrefetchCached
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[slug]; ok {
		return PrefetchPending
	}
	select {
	case p.requests <- path:
		p.pending[slug] = struct{}{}
		return PrefetchQueued
	default:
		return PrefetchDropped
	}
}

// Pending returns the number of queued or running prefetches.
func (p *Prefetcher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Close stops the workers and waits for them. Requests still queued are dropped.
// Close is idempotent.
func (p *Prefetcher) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.cancel()
	p.wg.Wait()
}
