package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startPolling(t *testing.T, w *PollingWatcher, dir string) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, dir) }()
	// Wait for the baseline scan
	time.Sleep(100 * time.Millisecond)
	return cancel, done
}

func TestPollingWatcher_DetectsFileCreation(t *testing.T) {
	// Given: a docs directory and a polling watcher
	dir := t.TempDir()
	w := NewPollingWatcher(50 * time.Millisecond)
	cancel, _ := startPolling(t, w, dir)
	defer cancel()

	// When: a document is created in a new subdirectory
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "combat"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "combat", "crit.md"), []byte("【暴击】：crit"), 0o644))

	// Then: CREATE events use slash-separated relative paths
	events := collectEvents(w.Events(), 2, time.Second)
	require.Len(t, events, 2)
	assert.Equal(t, FileEvent{Path: "combat", Operation: OpCreate, IsDir: true, Timestamp: events[0].Timestamp}, events[0])
	assert.Equal(t, "combat/crit.md", events[1].Path)
	assert.Equal(t, OpCreate, events[1].Operation)

	require.NoError(t, w.Stop())
}

func TestPollingWatcher_DetectsFileModification(t *testing.T) {
	// Given: an existing document
	dir := t.TempDir()
	file := filepath.Join(dir, "terms.md")
	require.NoError(t, os.WriteFile(file, []byte("【A】：one"), 0o644))

	w := NewPollingWatcher(50 * time.Millisecond)
	cancel, _ := startPolling(t, w, dir)
	defer cancel()

	// When: it is rewritten with a different size
	require.NoError(t, os.WriteFile(file, []byte("【A】：one, now longer"), 0o644))

	// Then: a MODIFY event is reported
	events := collectEvents(w.Events(), 1, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, OpModify, events[0].Operation)
	assert.Equal(t, "terms.md", events[0].Path)

	require.NoError(t, w.Stop())
}

func TestPollingWatcher_DetectsFileDeletion(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "gone.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	w := NewPollingWatcher(50 * time.Millisecond)
	cancel, _ := startPolling(t, w, dir)
	defer cancel()

	require.NoError(t, os.Remove(file))

	events := collectEvents(w.Events(), 1, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, OpDelete, events[0].Operation)
	assert.Equal(t, "gone.md", events[0].Path)

	require.NoError(t, w.Stop())
}

func TestPollingWatcher_SkipsIgnoredPaths(t *testing.T) {
	// Given: a watcher ignoring drafts
	dir := t.TempDir()
	w := NewPollingWatcher(50*time.Millisecond, "drafts/**")
	cancel, _ := startPolling(t, w, dir)
	defer cancel()

	// When: hidden, ignored and visible files appear
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "drafts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drafts", "wip.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.md"), []byte("x"), 0o644))

	// Then: only the visible document is reported
	events := collectEvents(w.Events(), 5, 400*time.Millisecond)
	require.Len(t, events, 1)
	assert.Equal(t, "visible.md", events[0].Path)

	require.NoError(t, w.Stop())
}

func TestPollingWatcher_Start_InvalidPath_ReturnsError(t *testing.T) {
	w := NewPollingWatcher(100 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := w.Start(ctx, filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestPollingWatcher_ContextCancellation_NoLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: a running watcher
	w := NewPollingWatcher(20 * time.Millisecond)
	cancel, done := startPolling(t, w, t.TempDir())

	// When: the context is cancelled
	cancel()

	// Then: Start returns and the channels are closed
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for Start to return after context cancel")
	}
	_, ok := <-w.Events()
	assert.False(t, ok)
	assert.NoError(t, w.Stop())
}

// collectEvents collects up to n events or until timeout.
func collectEvents(ch <-chan FileEvent, n int, timeout time.Duration) []FileEvent {
	var events []FileEvent
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for len(events) < n {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-timer.C:
			return events
		}
	}
	return events
}
