package browser

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/slmtnm/s4view/internal/metrics"
)

// Status is the loading indicator of the viewer.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusErrored:
		return "errored"
	}
	return "unknown"
}

// State is what the renderer draws.
type State struct {
	Status     Status
	Path       string
	Breadcrumb []Crumb
	// Listing is the last one applied. It is kept while loading and after an
	// error so the previous content stays visible.
	Listing Listing
	Folders []*FolderView
	Files   []*FileView
	Err     error
}

// Viewer loads the listing of the current path, keeps the loading state and
// warms the cache around it.
type Viewer struct {
	fetcher    *Fetcher
	prefetcher *Prefetcher
	links      LinkResolver
	paths      *PathState
	log        *zap.Logger

	mu          sync.Mutex
	ctx         context.Context
	generation  uint64
	state       State
	unsubscribe func()
	inflight    sync.WaitGroup

	changed chan struct{}
}

// NewViewer wires a viewer. Call Start to begin loading.
func NewViewer(fetcher *Fetcher, prefetcher *Prefetcher, links LinkResolver, paths *PathState, log *zap.Logger) *Viewer {
	if log == nil {
		log = zap.NewNop()
	}
	path := paths.Path()
	return &Viewer{
		fetcher:    fetcher,
		prefetcher: prefetcher,
		links:      links,
		paths:      paths,
		log:        log,
		ctx:        context.Background(),
		state: State{
			Status:     StatusLoading,
			Path:       path,
			Breadcrumb: BuildBreadcrumb(path),
		},
		changed: make(chan struct{}, 1),
	}
}

// Start loads the current path, warms its ancestors and follows path changes.
// ctx bounds every request the viewer makes.
func (v *Viewer) Start(ctx context.Context) {
	v.mu.Lock()
	v.ctx = ctx
	v.unsubscribe = v.paths.Subscribe(v.load)
	v.mu.Unlock()

	path := v.paths.Path()
	v.load(path)
	for _, crumb := range Ancestors(path) {
		v.prefetcher.Submit(crumb.Target())
	}
}

// Stop stops following path changes and waits for loads in flight. Cancel
// the context given to Start first to abort them.
func (v *Viewer) Stop() {
	v.mu.Lock()
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	v.mu.Unlock()
	v.inflight.Wait()
}

// Retry loads the current path again, e.g. after an error.
func (v *Viewer) Retry() {
	v.load(v.paths.Path())
}

// Snapshot returns the current state.
func (v *Viewer) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Changed receives a value after the state changes. Notifications coalesce:
// read Snapshot after each receive.
func (v *Viewer) Changed() <-chan struct{} {
	return v.changed
}

func (v *Viewer) notify() {
	select {
	case v.changed <- struct{}{}:
	default:
	}
}

// load enters the loading state for path and starts the fetch. Only the
// response of the latest load is applied.
func (v *Viewer) load(path string) {
	v.mu.Lock()
	v.generation++
	generation := v.generation
	ctx := v.ctx
	v.state.Status = StatusLoading
	v.state.Path = path
	v.state.Breadcrumb = BuildBreadcrumb(path)
	v.state.Err = nil
	v.inflight.Add(1)
	v.mu.Unlock()
	v.notify()

	go v.fetch(ctx, generation, path)
}

func (v *Viewer) fetch(ctx context.Context, generation uint64, path string) {
	defer v.inflight.Done()
	listing, err := v.fetcher.Fetch(ctx, path)

	var folders []*FolderView
	var files []*FileView
	if err == nil {
		if !v.current(generation) {
			v.discard(path)
			return
		}
		// Each folder view queues its own prefetch.
		folders, files = Views(listing, v.prefetcher, v.links)
	}

	v.mu.Lock()
	if generation != v.generation {
		v.mu.Unlock()
		v.discard(path)
		return
	}
	if err != nil {
		v.state.Status = StatusErrored
		v.state.Err = err
	} else {
		v.state.Status = StatusReady
		v.state.Listing = listing
		v.state.Folders = folders
		v.state.Files = files
	}
	v.mu.Unlock()
	v.notify()

	if err != nil {
		v.log.Error("failed to load folder", zap.String("path", path), zap.Error(err))
	}
}

func (v *Viewer) current(generation uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return generation == v.generation
}

func (v *Viewer) discard(path string) {
	metrics.RecordStaleResponse()
	v.log.Debug("discarded stale response", zap.String("path", path))
}
