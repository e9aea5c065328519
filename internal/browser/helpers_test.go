package browser

import (
	"context"
	"errors"
	"sync"
)

// fakeStorage serves canned listings and counts calls. A path present in
// gates blocks ListFolder until the channel is closed.
type fakeStorage struct {
	mu        sync.Mutex
	folders   map[string][]*Entry
	failures  map[string]error
	gates     map[string]chan struct{}
	listCalls map[string]int
	linkCalls map[string]int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		folders:   make(map[string][]*Entry),
		failures:  make(map[string]error),
		gates:     make(map[string]chan struct{}),
		listCalls: make(map[string]int),
		linkCalls: make(map[string]int),
	}
}

func (s *fakeStorage) add(path string, entries ...*Entry) *fakeStorage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[Normalize(path)] = entries
	return s
}

func (s *fakeStorage) fail(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[Normalize(path)] = err
}

func (s *fakeStorage) gate(path string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[Normalize(path)] = ch
	return ch
}

func (s *fakeStorage) ListFolder(ctx context.Context, path string, includeMediaInfo bool) ([]*Entry, error) {
	slug := Normalize(path)
	s.mu.Lock()
	s.listCalls[slug]++
	gate := s.gates[slug]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[slug]; err != nil {
		return nil, err
	}
	entries, ok := s.folders[slug]
	if !ok {
		return nil, errors.New("path/not_found")
	}
	return entries, nil
}

func (s *fakeStorage) GetTemporaryLink(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkCalls[path]++
	if err := s.failures["link:"+path]; err != nil {
		return "", err
	}
	return "https://dl.example.com" + path, nil
}

func (s *fakeStorage) lists(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls[Normalize(path)]
}

func (s *fakeStorage) links(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkCalls[path]
}
