package main

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slmtnm/s4view/internal/browser"
)

// memStorage serves fixed listings keyed by path.
type memStorage map[string][]*browser.Entry

func (s memStorage) ListFolder(_ context.Context, path string, _ bool) ([]*browser.Entry, error) {
	entries, ok := s[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return entries, nil
}

func (s memStorage) GetTemporaryLink(_ context.Context, path string) (string, error) {
	return "https://example.com" + path + "?sig=1", nil
}

type tuiFixture struct {
	model    Model
	viewer   *browser.Viewer
	location *browser.MemoryHash
}

func newTUIFixture(t *testing.T) *tuiFixture {
	t.Helper()
	storage := memStorage{
		"": {
			browser.NewFolder("Photos", "/photos"),
			browser.NewFile("README.md", "/readme.md", 2048),
		},
		"/photos": {
			browser.NewFile("cat.jpg", "/photos/cat.jpg", 10),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	log := zap.NewNop()
	fetcher := browser.NewFetcher(storage, browser.NewListingCache(), log)
	prefetcher := browser.NewPrefetcher(fetcher, 1, 4, log)
	location := browser.NewMemoryHash("#")
	paths := browser.NewPathState(location)
	viewer := browser.NewViewer(fetcher, prefetcher, storage, paths, log)
	viewer.Start(ctx)
	t.Cleanup(func() {
		cancel()
		viewer.Stop()
		prefetcher.Close()
		paths.Close()
	})

	return &tuiFixture{
		model:    NewModel(ctx, viewer, location, "s3://media"),
		viewer:   viewer,
		location: location,
	}
}

func (f *tuiFixture) waitReady(t *testing.T, path string) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := f.viewer.Snapshot()
		return s.Path == path && s.Status == browser.StatusReady
	}, time.Second, 5*time.Millisecond)
	f.update(viewerChangedMsg{})
}

func (f *tuiFixture) update(msg tea.Msg) tea.Cmd {
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

func (f *tuiFixture) key(k string) tea.Cmd {
	switch k {
	case "enter":
		return f.update(tea.KeyMsg{Type: tea.KeyEnter})
	case "down":
		return f.update(tea.KeyMsg{Type: tea.KeyDown})
	case "esc":
		return f.update(tea.KeyMsg{Type: tea.KeyEsc})
	case "left":
		return f.update(tea.KeyMsg{Type: tea.KeyLeft})
	case "right":
		return f.update(tea.KeyMsg{Type: tea.KeyRight})
	}
	return f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestModel_RendersListing(t *testing.T) {
	f := newTUIFixture(t)
	f.waitReady(t, "")

	view := f.model.View()
	assert.Contains(t, view, "s3://media")
	assert.Contains(t, view, "home")
	assert.Contains(t, view, "Photos/")
	assert.Contains(t, view, "README.md")
	assert.Contains(t, view, "2 KB")
}

func TestModel_OpenFolderAndGoBack(t *testing.T) {
	f := newTUIFixture(t)
	f.waitReady(t, "")

	f.key("enter")
	assert.Equal(t, "#/photos", f.location.Hash())
	f.waitReady(t, "/photos")
	assert.Contains(t, f.model.View(), "cat.jpg")
	assert.Contains(t, f.model.View(), "photos")

	f.key("h")
	assert.Equal(t, "#", f.location.Hash())
	f.waitReady(t, "")
	assert.Contains(t, f.model.View(), "README.md")

	f.key("~")
	assert.Equal(t, "#", f.location.Hash())
}

func TestModel_ArrowKeysNavigate(t *testing.T) {
	f := newTUIFixture(t)
	f.waitReady(t, "")

	f.key("right")
	assert.Equal(t, "#/photos", f.location.Hash())
	f.waitReady(t, "/photos")

	f.key("left")
	assert.Equal(t, "#", f.location.Hash())
}

func TestModel_SelectingFileResolvesLink(t *testing.T) {
	f := newTUIFixture(t)
	f.waitReady(t, "")

	cmd := f.key("down")
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, linkResolvedMsg{}, msg)
	f.update(msg)

	assert.Contains(t, f.model.View(), "https://example.com/readme.md?sig=1")
	// Already resolved; enter does not ask again.
	assert.Nil(t, f.key("enter"))
}

func TestModel_HelpAndQuit(t *testing.T) {
	f := newTUIFixture(t)

	f.key("?")
	assert.Contains(t, f.model.View(), "Navigation:")
	f.key("esc")
	assert.Equal(t, ViewBrowser, f.model.viewMode)

	cmd := f.key("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
