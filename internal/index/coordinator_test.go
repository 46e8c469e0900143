package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/watcher"
)

// memSource is an in-memory corpus.
type memSource struct {
	mu      sync.Mutex
	docs    map[string]string
	readErr map[string]error
	listErr error
}

func newMemSource(docs map[string]string) *memSource {
	return &memSource{docs: docs, readErr: map[string]error{}}
}

func (m *memSource) ListDocuments(context.Context) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	paths := make([]string, 0, len(m.docs))
	for p := range m.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]Document, 0, len(paths))
	for _, p := range paths {
		out = append(out, Document{Path: p, Content: m.docs[p]})
	}
	return out, nil
}

func (m *memSource) ReadDocument(_ context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr[path]; err != nil {
		return "", err
	}
	content, ok := m.docs[path]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
	}
	return content, nil
}

func (m *memSource) set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = content
}

func (m *memSource) delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) DocumentChanged(path string, kind EventKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "file-changed "+path+" "+string(kind))
}

func (r *recordingNotifier) IndexUpdated(snap *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("index-updated v%d", snap.Version))
}

func (r *recordingNotifier) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func setupTestCoordinator(t *testing.T, docs map[string]string) (*Coordinator, *memSource, *recordingNotifier) {
	t.Helper()
	src := newMemSource(docs)
	notifier := &recordingNotifier{}
	c := NewCoordinator(CoordinatorConfig{
		Store:    newTestStore(t),
		Source:   src,
		Notifier: notifier,
	})
	return c, src, notifier
}

func TestCoordinator_Rebuild(t *testing.T) {
	c, _, notifier := setupTestCoordinator(t, map[string]string{
		"force.md": docForce,
		"speed.md": docSpeed,
	})

	snap, err := c.Rebuild(context.Background())

	require.NoError(t, err)
	assert.Len(t, snap.Terms["Force"], 2)
	assert.Same(t, snap, c.Snapshot())
	assert.Equal(t, []string{"index-updated v1"}, notifier.list())
}

func TestCoordinator_Rebuild_ListFailureKeepsSnapshot(t *testing.T) {
	c, src, notifier := setupTestCoordinator(t, map[string]string{"speed.md": docSpeed})
	first, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	src.listErr = errors.New("disk gone")
	snap, err := c.Rebuild(context.Background())

	require.Error(t, err)
	assert.Equal(t, wikierrors.ErrCodeIndexFailed, wikierrors.GetCode(err))
	assert.Same(t, first, snap)
	assert.Len(t, notifier.list(), 1)
}

func TestCoordinator_ApplyDocumentEvent_Lifecycle(t *testing.T) {
	// Given: an empty corpus
	c, src, notifier := setupTestCoordinator(t, map[string]string{})
	ctx := context.Background()

	// When: a document is created, updated, then deleted
	src.set("a.md", "【Old】：first\n")
	snap, err := c.ApplyDocumentEvent(ctx, "a.md", EventCreated)
	require.NoError(t, err)
	assert.Len(t, snap.Lookup("Old"), 1)

	src.set("a.md", "【New】：second\n")
	snap, err = c.ApplyDocumentEvent(ctx, "a.md", EventUpdated)
	require.NoError(t, err)
	assert.Nil(t, snap.Lookup("Old"))
	assert.Len(t, snap.Lookup("New"), 1)

	src.delete("a.md")
	snap, err = c.ApplyDocumentEvent(ctx, "a.md", EventDeleted)
	require.NoError(t, err)
	assert.Empty(t, snap.Terms)

	// Then: every event is announced before the index update it caused
	assert.Equal(t, []string{
		"file-changed a.md created", "index-updated v1",
		"file-changed a.md updated", "index-updated v2",
		"file-changed a.md deleted", "index-updated v3",
	}, notifier.list())
}

func TestCoordinator_ApplyDocumentEvent_MissingDocumentIsRemoved(t *testing.T) {
	c, src, notifier := setupTestCoordinator(t, map[string]string{"a.md": docSpeed})
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	// The file vanished before the update was applied.
	src.delete("a.md")
	snap, err := c.ApplyDocumentEvent(context.Background(), "a.md", EventUpdated)

	require.NoError(t, err)
	assert.Empty(t, snap.Terms)
	assert.Contains(t, notifier.list(), "file-changed a.md deleted")
}

func TestCoordinator_ApplyDocumentEvent_ReadFailure(t *testing.T) {
	c, src, _ := setupTestCoordinator(t, map[string]string{"a.md": docSpeed})
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	src.readErr["a.md"] = errors.New("permission denied")
	snap, err := c.ApplyDocumentEvent(context.Background(), "a.md", EventUpdated)

	require.Error(t, err)
	assert.Equal(t, wikierrors.ErrCodeDocumentUnreadable, wikierrors.GetCode(err))
	assert.True(t, wikierrors.IsParseFailure(err))
	require.NotNil(t, snap)
	assert.Empty(t, snap.Terms)
}

func TestCoordinator_ApplyDocumentEvent_ParseFailure(t *testing.T) {
	c, src, _ := setupTestCoordinator(t, map[string]string{"a.md": docForce})
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	src.set("a.md", docBad)
	snap, err := c.ApplyDocumentEvent(context.Background(), "a.md", EventUpdated)

	require.Error(t, err)
	assert.Equal(t, wikierrors.ErrCodeDocumentMalformed, wikierrors.GetCode(err))
	assert.Empty(t, snap.Terms)
	assert.Empty(t, snap.Scopes)
}

func TestCoordinator_ApplyDocumentEvent_UnknownKind(t *testing.T) {
	c, _, notifier := setupTestCoordinator(t, map[string]string{})

	snap, err := c.ApplyDocumentEvent(context.Background(), "a.md", EventKind("moved"))

	require.Error(t, err)
	assert.Equal(t, wikierrors.ErrCodeInvalidInput, wikierrors.GetCode(err))
	assert.NotNil(t, snap)
	assert.Empty(t, notifier.list())
}

func TestParseEventKind(t *testing.T) {
	for _, s := range []string{"created", "updated", "deleted"} {
		k, err := ParseEventKind(s)
		require.NoError(t, err)
		assert.Equal(t, EventKind(s), k)
	}
	_, err := ParseEventKind("renamed")
	assert.Error(t, err)
}

func TestCoordinator_HandleEvents(t *testing.T) {
	// Given: watcher events for documents and other files
	c, src, _ := setupTestCoordinator(t, map[string]string{})
	c.config.Accept = func(path string) bool { return len(path) > 3 && path[len(path)-3:] == ".md" }
	src.set("a.md", docSpeed)
	src.set("b.md", docMass)
	src.set("notes.txt", "【Ignored】：not markdown\n")

	// When: handling a batch
	err := c.HandleEvents(context.Background(), []watcher.FileEvent{
		{Path: "a.md", Operation: watcher.OpCreate},
		{Path: "notes.txt", Operation: watcher.OpCreate},
		{Path: "docs", Operation: watcher.OpCreate, IsDir: true},
		{Path: "b.md", Operation: watcher.OpModify},
	})

	// Then: only the documents are indexed
	require.NoError(t, err)
	snap := c.Snapshot()
	assert.Len(t, snap.Lookup("Speed"), 1)
	assert.Len(t, snap.Lookup("Mass"), 1)
	assert.Nil(t, snap.Lookup("Ignored"))
	assert.Equal(t, []string{"a.md", "b.md"}, snap.Paths())
}

func TestCoordinator_HandleEvents_DeleteAndRename(t *testing.T) {
	c, src, _ := setupTestCoordinator(t, map[string]string{
		"a.md": docSpeed,
		"b.md": docMass,
	})
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	src.delete("a.md")
	src.delete("b.md")
	src.set("c.md", docMass)
	err = c.HandleEvents(context.Background(), []watcher.FileEvent{
		{Path: "a.md", Operation: watcher.OpDelete},
		{Path: "c.md", OldPath: "b.md", Operation: watcher.OpRename},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"c.md"}, c.Snapshot().Paths())
}

func TestCoordinator_HandleEvents_RenameAway(t *testing.T) {
	// Given: an indexed document
	c, src, notes := setupTestCoordinator(t, map[string]string{"a.md": docSpeed})
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	// When: the watcher reports it moved away, without a destination
	src.delete("a.md")
	err = c.HandleEvents(context.Background(), []watcher.FileEvent{
		{Path: "a.md", Operation: watcher.OpRename},
	})

	// Then: the document is dropped and announced as deleted
	require.NoError(t, err)
	assert.Empty(t, c.Snapshot().Paths())
	assert.Contains(t, notes.list(), "file-changed a.md deleted")
}

func TestCoordinator_HandleEvents_DirectoryLeavesCorpus(t *testing.T) {
	tests := []struct {
		name  string
		event watcher.FileEvent
	}{
		{"moved away", watcher.FileEvent{Path: "sub", Operation: watcher.OpRename}},
		{"deleted", watcher.FileEvent{Path: "sub", Operation: watcher.OpDelete, IsDir: true}},
		{"renamed inside the root", watcher.FileEvent{Path: "moved", OldPath: "sub", Operation: watcher.OpRename, IsDir: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: documents inside a directory and one next to it
			c, src, notes := setupTestCoordinator(t, map[string]string{
				"sub/a.md":      docSpeed,
				"sub/deep/b.md": docMass,
				"subject.md":    docForce,
			})
			c.config.Accept = func(path string) bool { return len(path) > 3 && path[len(path)-3:] == ".md" }
			_, err := c.Rebuild(context.Background())
			require.NoError(t, err)

			// When: the directory goes, reported by a single event
			src.delete("sub/a.md")
			src.delete("sub/deep/b.md")
			err = c.HandleEvents(context.Background(), []watcher.FileEvent{tt.event})

			// Then: nothing from below it is reachable and the sibling stays
			require.NoError(t, err)
			snap := c.Snapshot()
			assert.Equal(t, []string{"subject.md"}, snap.Paths())
			assert.Nil(t, snap.Lookup("Speed"))
			assert.Nil(t, snap.Lookup("Mass"))
			assertNoEntriesFrom(t, snap, "sub/a.md")
			assertNoEntriesFrom(t, snap, "sub/deep/b.md")
			assert.Equal(t, []string{"physics"}, snap.Scopes)
			assert.Subset(t, notes.list(), []string{
				"file-changed sub/a.md deleted",
				"file-changed sub/deep/b.md deleted",
			})
		})
	}
}

func TestCoordinator_HandleEvents_ContinuesAfterFailure(t *testing.T) {
	c, src, _ := setupTestCoordinator(t, map[string]string{})
	src.set("bad.md", docBad)
	src.set("good.md", docSpeed)

	err := c.HandleEvents(context.Background(), []watcher.FileEvent{
		{Path: "bad.md", Operation: watcher.OpCreate},
		{Path: "good.md", Operation: watcher.OpCreate},
	})

	require.NoError(t, err)
	assert.Len(t, c.Snapshot().Lookup("Speed"), 1)
}

func TestCoordinator_SerializesConcurrentEvents(t *testing.T) {
	c, src, _ := setupTestCoordinator(t, map[string]string{})
	for i := 0; i < 20; i++ {
		src.set(fmt.Sprintf("%02d.md", i), fmt.Sprintf("---\nscope: s%d\n---\n【T%d】：def\n", i, i))
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.ApplyDocumentEvent(context.Background(), fmt.Sprintf("%02d.md", i), EventCreated)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Len(t, snap.Scopes, 20)
	assert.Equal(t, recomputedScopes(snap), snap.Scopes)
	assert.Equal(t, 20, snap.Documents)
}
