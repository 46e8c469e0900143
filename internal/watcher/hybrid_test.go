package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHybrid(t *testing.T, opts Options, dir string) *HybridWatcher {
	t.Helper()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := w.Start(ctx, dir); err != nil && err != context.Canceled {
			t.Logf("Start error: %v", err)
		}
	}()
	// Wait for watcher to be ready
	time.Sleep(200 * time.Millisecond)
	return w
}

// waitForPath drains batches until one mentions path.
func waitForPath(t *testing.T, w *HybridWatcher, path string, timeout time.Duration) (FileEvent, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case batch, ok := <-w.Events():
			if !ok {
				return FileEvent{}, false
			}
			for _, e := range batch {
				if e.Path == path {
					return e, true
				}
			}
		case <-deadline:
			return FileEvent{}, false
		}
	}
}

func TestHybridWatcher_NewHybridWatcher(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())

	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Contains(t, []string{"fsnotify", "polling"}, w.WatcherType())
	assert.True(t, w.IsHealthy())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsHealthy())
}

func TestHybridWatcher_RejectsInvalidOptions(t *testing.T) {
	_, err := NewHybridWatcher(Options{IgnorePatterns: []string{"[oops"}})

	assert.Error(t, err)
}

func TestHybridWatcher_ForcePolling(t *testing.T) {
	w, err := NewHybridWatcher(Options{ForcePolling: true})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Equal(t, "polling", w.WatcherType())
}

func TestHybridWatcher_DetectsLifecycle(t *testing.T) {
	modes := []struct {
		name string
		opts Options
	}{
		{"fsnotify", Options{DebounceWindow: 20 * time.Millisecond}},
		{"polling", Options{DebounceWindow: 20 * time.Millisecond, PollInterval: 50 * time.Millisecond, ForcePolling: true}},
	}

	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			// Given: a running watcher on an empty docs directory
			dir := t.TempDir()
			w := startHybrid(t, mode.opts, dir)
			defer func() { _ = w.Stop() }()
			file := filepath.Join(dir, "terms.md")

			// When: a document is created
			require.NoError(t, os.WriteFile(file, []byte("【A】：a"), 0o644))

			// Then: it is reported by relative path
			e, ok := waitForPath(t, w, "terms.md", 3*time.Second)
			require.True(t, ok, "expected create event")
			assert.Equal(t, OpCreate, e.Operation)

			// When: it is removed
			require.NoError(t, os.Remove(file))

			// Then: a DELETE follows
			e, ok = waitForPath(t, w, "terms.md", 3*time.Second)
			require.True(t, ok, "expected delete event")
			assert.Equal(t, OpDelete, e.Operation)
		})
	}
}

func TestHybridWatcher_DetectsFileInNewSubdirectory(t *testing.T) {
	// Given: a running watcher
	dir := t.TempDir()
	w := startHybrid(t, Options{DebounceWindow: 20 * time.Millisecond}, dir)
	defer func() { _ = w.Stop() }()

	// When: a directory and a document inside it appear at once
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "combat", "crit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "combat", "crit", "crit.md"), []byte("x"), 0o644))

	// Then: the document is reported
	_, ok := waitForPath(t, w, "combat/crit/crit.md", 3*time.Second)
	assert.True(t, ok, "expected event for file in new subdirectory")
}

func TestHybridWatcher_IgnoresHiddenAndExcluded(t *testing.T) {
	// Given: a watcher excluding drafts
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "drafts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	w := startHybrid(t, Options{DebounceWindow: 20 * time.Millisecond, IgnorePatterns: []string{"drafts/**"}}, dir)
	defer func() { _ = w.Stop() }()

	// When: files land in ignored places, then a visible one
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drafts", "wip.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".swap.md"), []byte("x"), 0o644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.md"), []byte("x"), 0o644))

	// Then: no batch up to the visible file mentions an ignored path
	deadline := time.After(3 * time.Second)
	for {
		select {
		case batch := <-w.Events():
			for _, e := range batch {
				assert.NotContains(t, []string{"drafts/wip.md", ".git/HEAD", ".swap.md"}, e.Path)
				if e.Path == "visible.md" {
					return
				}
			}
		case <-deadline:
			t.Fatal("timeout waiting for visible.md")
		}
	}
}

func TestHybridWatcher_Start_InvalidPath_ReturnsError(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	err = w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestHybridWatcher_ContextCancel_StopsCleanly(t *testing.T) {
	// Given: a started watcher
	w, err := NewHybridWatcher(Options{DebounceWindow: 10 * time.Millisecond})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, t.TempDir()) }()
	time.Sleep(100 * time.Millisecond)

	// When: cancelling the context
	cancel()

	// Then: Start returns and the watcher is stopped
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.False(t, w.IsHealthy())
}

func TestHybridWatcher_Stop_ClosesChannels(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok, "events channel should be closed")
	_, ok = <-w.Errors()
	assert.False(t, ok, "errors channel should be closed")
}

func TestHybridWatcher_ConcurrentStop_Safe(t *testing.T) {
	w := startHybrid(t, DefaultOptions(), t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Stop())
		}()
	}
	wg.Wait()
}

func TestHybridWatcher_DroppedBatches_IncrementsOnOverflow(t *testing.T) {
	// Given: a hybrid watcher with a tiny buffer
	w, err := NewHybridWatcher(Options{EventBufferSize: 1})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	assert.Equal(t, uint64(0), w.DroppedBatches())

	// When: more batches are emitted than the buffer holds
	w.emitEvents([]FileEvent{{Path: "a.md", Operation: OpCreate}})
	w.emitEvents([]FileEvent{{Path: "b.md", Operation: OpCreate}})
	w.emitEvents([]FileEvent{{Path: "c.md", Operation: OpCreate}})

	// Then: the overflow is counted
	assert.Equal(t, uint64(2), w.DroppedBatches())
}
