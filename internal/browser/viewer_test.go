package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type viewerFixture struct {
	storage    *fakeStorage
	cache      *ListingCache
	hash       *MemoryHash
	prefetcher *Prefetcher
	viewer     *Viewer
}

func newViewerFixture(t *testing.T, storage *fakeStorage, hash string) *viewerFixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	cache := NewListingCache()
	fetcher := NewFetcher(storage, cache, log)
	prefetcher := NewPrefetcher(fetcher, 2, 32, log)
	memHash := NewMemoryHash(hash)
	paths := NewPathState(memHash)
	viewer := NewViewer(fetcher, prefetcher, storage, paths, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		viewer.Stop()
		prefetcher.Close()
		paths.Close()
	})
	viewer.Start(ctx)

	return &viewerFixture{
		storage:    storage,
		cache:      cache,
		hash:       memHash,
		prefetcher: prefetcher,
		viewer:     viewer,
	}
}

func (f *viewerFixture) waitFor(t *testing.T, cond func(State) bool) State {
	t.Helper()
	var s State
	require.Eventually(t, func() bool {
		s = f.viewer.Snapshot()
		return cond(s)
	}, time.Second, time.Millisecond)
	return s
}

func readyAt(path string) func(State) bool {
	return func(s State) bool { return s.Status == StatusReady && s.Path == path }
}

func TestViewer_StartsLoading(t *testing.T) {
	storage := newFakeStorage().add("")
	gate := storage.gate("")
	f := newViewerFixture(t, storage, "")

	s := f.viewer.Snapshot()
	assert.Equal(t, StatusLoading, s.Status)
	assert.Equal(t, []Crumb{{Name: "home", Path: "#"}}, s.Breadcrumb)

	close(gate)
	f.waitFor(t, readyAt(""))
}

func TestViewer_ReadyPartitionsAndPrefetchesFolders(t *testing.T) {
	storage := newFakeStorage().
		add("",
			NewFolder("docs", "/docs"),
			NewFolder("pics", "/pics"),
			NewFile("notes.txt", "/notes.txt", 2048),
		).
		add("/docs").
		add("/pics")
	f := newViewerFixture(t, storage, "")

	s := f.waitFor(t, readyAt(""))
	require.Len(t, s.Folders, 2)
	require.Len(t, s.Files, 1)
	assert.Equal(t, "2 KB", s.Files[0].Size())
	assert.NoError(t, s.Err)

	assert.Eventually(t, func() bool {
		return f.cache.Has("docs") && f.cache.Has("pics")
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, storage.lists("/docs"))
	assert.Equal(t, 1, storage.lists("/pics"))
}

func TestViewer_SubmitsEachChildFolderOnce(t *testing.T) {
	storage := newFakeStorage().
		add("", NewFolder("docs", "/docs")).
		add("/docs")
	gate := storage.gate("/docs")
	defer close(gate)

	core, logs := observer.New(zap.DebugLevel)
	log := zaptest.NewLogger(t)
	fetcher := NewFetcher(storage, NewListingCache(), log)
	prefetcher := NewPrefetcher(fetcher, 1, 4, zap.New(core))
	paths := NewPathState(NewMemoryHash(""))
	viewer := NewViewer(fetcher, prefetcher, storage, paths, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		viewer.Stop()
		prefetcher.Close()
		paths.Close()
	})
	viewer.Start(ctx)

	require.Eventually(t, func() bool {
		return viewer.Snapshot().Status == StatusReady
	}, time.Second, time.Millisecond)

	// The prefetch of /docs is still blocked, so a second submission
	// would be skipped as pending.
	assert.Equal(t, 1, prefetcher.Pending())
	assert.Zero(t, logs.FilterMessage("prefetch skipped").Len())
}

func TestViewer_WarmsAncestorsOnStart(t *testing.T) {
	storage := newFakeStorage().
		add("").
		add("/a").
		add("/a/b").
		add("/a/b/c")
	f := newViewerFixture(t, storage, "#/a/b/c")

	f.waitFor(t, readyAt("/a/b/c"))
	assert.Eventually(t, func() bool {
		return f.cache.Has("") && f.cache.Has("a") && f.cache.Has("a-b")
	}, time.Second, time.Millisecond)
}

func TestViewer_Errored(t *testing.T) {
	storage := newFakeStorage().add("", NewFolder("private", "/private"))
	storage.fail("/private", errors.New("insufficient_scope"))
	f := newViewerFixture(t, storage, "")
	f.waitFor(t, readyAt(""))

	f.hash.SetHash("#/private")
	s := f.waitFor(t, func(s State) bool { return s.Status == StatusErrored })

	assert.Equal(t, "/private", s.Path)
	assert.True(t, IsAPIFailure(s.Err))
	assert.False(t, f.cache.Has("private"))
	// The previous listing stays visible.
	require.Len(t, s.Folders, 1)
	assert.Equal(t, "private", s.Folders[0].Name())

	t.Run("retry_after_recovery", func(t *testing.T) {
		storage.fail("/private", nil)
		storage.add("/private", NewFile("key", "/private/key", 1))

		f.viewer.Retry()
		s := f.waitFor(t, readyAt("/private"))
		assert.Len(t, s.Files, 1)
		assert.True(t, f.cache.Has("private"))
	})
}

func TestViewer_NavigationUsesCache(t *testing.T) {
	storage := newFakeStorage().
		add("", NewFolder("docs", "/docs")).
		add("/docs", NewFile("a.txt", "/docs/a.txt", 1))
	f := newViewerFixture(t, storage, "")
	f.waitFor(t, readyAt(""))
	require.Eventually(t, func() bool { return f.cache.Has("docs") }, time.Second, time.Millisecond)

	f.hash.SetHash("#/docs")
	f.waitFor(t, readyAt("/docs"))
	f.hash.SetHash("#")
	f.waitFor(t, readyAt(""))

	assert.Equal(t, 1, storage.lists(""))
	assert.Equal(t, 1, storage.lists("/docs"))
}

func TestViewer_LatestPathWins(t *testing.T) {
	storage := newFakeStorage().
		add("").
		add("/slow", NewFile("old.txt", "/slow/old.txt", 1)).
		add("/fast", NewFile("new.txt", "/fast/new.txt", 1))
	f := newViewerFixture(t, storage, "")
	f.waitFor(t, readyAt(""))

	gate := storage.gate("/slow")
	f.hash.SetHash("#/slow")
	require.Eventually(t, func() bool { return storage.lists("/slow") == 1 }, time.Second, time.Millisecond)
	f.hash.SetHash("#/fast")
	f.waitFor(t, readyAt("/fast"))

	// The slow response lands after the path moved on.
	close(gate)
	require.Eventually(t, func() bool { return f.cache.Has("slow") }, time.Second, time.Millisecond)
	assert.Never(t, func() bool {
		s := f.viewer.Snapshot()
		return s.Path != "/fast" || len(s.Files) != 1 || s.Files[0].Name() != "new.txt"
	}, 50*time.Millisecond, time.Millisecond)
}

func TestViewer_Changed(t *testing.T) {
	storage := newFakeStorage().add("").add("/x")
	f := newViewerFixture(t, storage, "")

	select {
	case <-f.viewer.Changed():
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
	f.waitFor(t, readyAt(""))

	f.hash.SetHash("#/x")
	select {
	case <-f.viewer.Changed():
	case <-time.After(time.Second):
		t.Fatal("no change notification after navigation")
	}
}

func TestViewer_StopIgnoresNavigation(t *testing.T) {
	storage := newFakeStorage().add("").add("/x")
	f := newViewerFixture(t, storage, "")
	f.waitFor(t, readyAt(""))

	f.viewer.Stop()
	f.hash.SetHash("#/x")

	assert.Equal(t, "", f.viewer.Snapshot().Path)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "errored", StatusErrored.String())
	assert.Equal(t, "unknown", Status(42).String())
}
