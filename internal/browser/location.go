package browser

import (
	"net/url"
	"strings"
	"sync"
)

// HashSource is where the current location fragment comes from.
type HashSource interface {
	// Hash returns the fragment, with or without its leading "#".
	Hash() string
	// OnChange registers fn to run after every change. Call cancel to stop.
	OnChange(fn func(hash string)) (cancel func())
}

// MemoryHash is a HashSource held in memory. The terminal UI writes it when
// the user navigates.
type MemoryHash struct {
	mu        sync.Mutex
	hash      string
	nextID    int
	listeners map[int]func(string)
}

// NewMemoryHash creates a source positioned at hash.
func NewMemoryHash(hash string) *MemoryHash {
	return &MemoryHash{
		hash:      hash,
		listeners: make(map[int]func(string)),
	}
}

// Hash returns the current fragment.
func (h *MemoryHash) Hash() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hash
}

// SetHash moves to hash and notifies listeners if it changed.
func (h *MemoryHash) SetHash(hash string) {
	h.mu.Lock()
	if hash == h.hash {
		h.mu.Unlock()
		return
	}
	h.hash = hash
	listeners := make([]func(string), 0, len(h.listeners))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(hash)
	}
}

// OnChange implements HashSource.
func (h *MemoryHash) OnChange(fn func(hash string)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// PathState is the single source of truth for the current path. It follows a
// HashSource and tells subscribers, in subscription order, about every change.
type PathState struct {
	mu          sync.Mutex
	path        string
	breadcrumb  []Crumb
	nextID      int
	subscribers map[int]func(path string)
	stop        func()
}

// NewPathState reads the current hash of src and follows its changes.
func NewPathState(src HashSource) *PathState {
	s := &PathState{subscribers: make(map[int]func(string))}
	s.set(src.Hash())
	s.stop = src.OnChange(func(hash string) {
		s.update(hash)
	})
	return s
}

// DecodeHash turns a location fragment into a path: the leading "#" is
// dropped and percent-escapes are decoded. Undecodable input is kept as is.
func DecodeHash(hash string) string {
	raw := strings.TrimPrefix(hash, "#")
	if p, err := url.PathUnescape(raw); err == nil {
		return p
	}
	return raw
}

// EncodeHash returns the location fragment that DecodeHash turns back into
// path. Only "%" is escaped, so plain paths stay readable.
func EncodeHash(path string) string {
	return "#" + strings.ReplaceAll(path, "%", "%25")
}

func (s *PathState) set(hash string) string {
	path := DecodeHash(hash)
	s.path = path
	s.breadcrumb = BuildBreadcrumb(path)
	return path
}

func (s *PathState) update(hash string) {
	s.mu.Lock()
	path := s.set(hash)
	subscribers := make([]func(string), 0, len(s.subscribers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subscribers[id]; ok {
			subscribers = append(subscribers, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(path)
	}
}

// Path returns the current path.
func (s *PathState) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Breadcrumb returns the breadcrumb of the current path.
func (s *PathState) Breadcrumb() []Crumb {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Crumb(nil), s.breadcrumb...)
}

// Subscribe registers fn to run with the new path after every change.
func (s *PathState) Subscribe(fn func(path string)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Close stops following the hash source.
func (s *PathState) Close() {
	if s.stop != nil {
		s.stop()
	}
}
