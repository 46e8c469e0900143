// Package index owns the in-memory term and formula index.
//
// A Store publishes immutable snapshots. Mutations (Rebuild, Upsert, Remove)
// run one at a time and build the next snapshot off to the side before
// swapping it in, so readers calling Snapshot never block and never see a
// half-applied change.
package index

import (
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/termwiki/internal/document"
	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
)

// Document is one corpus entry handed to the store.
type Document struct {
	Path    string
	Content string
}

// ParseFunc turns document text into index entries.
type ParseFunc func(path, content string) (*document.Result, error)

// Observer is told about every published mutation. Implementations must
// not block.
type Observer interface {
	MutationApplied(op string, elapsed time.Duration, snap *Snapshot)
	ParseFailed(path string, err error)
}

// Mutation names passed to Observer.MutationApplied.
const (
	OpRebuild = "rebuild"
	OpUpsert  = "upsert"
	OpRemove  = "remove"
)

// Store is the single owner of indexed terms and formulas.
type Store struct {
	mu       sync.Mutex
	current  atomic.Pointer[Snapshot]
	parse    ParseFunc
	now      func() time.Time
	workers  int
	observer Observer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithParser replaces document.Parse.
func WithParser(fn ParseFunc) StoreOption {
	return func(s *Store) { s.parse = fn }
}

// WithClock replaces time.Now for BuiltAt stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithParseWorkers bounds how many documents Rebuild parses at once.
// Values below 1 mean GOMAXPROCS.
func WithParseWorkers(n int) StoreOption {
	return func(s *Store) { s.workers = n }
}

// WithObserver registers an observer for published mutations.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) { s.observer = o }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		parse: document.Parse,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	s.current.Store(emptySnapshot())
	return s
}

// Snapshot returns the latest published snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Failure is a document that contributed nothing to a rebuild.
type Failure struct {
	Path string
	Err  error
}

// RebuildReport describes a completed rebuild.
type RebuildReport struct {
	Documents int
	Failed    []Failure
	Elapsed   time.Duration
}

// Rebuild discards the index and parses docs from scratch. Documents are
// parsed concurrently but aggregated in the order given. A document that
// fails to parse is logged and skipped; the rebuild always completes.
//
// The store stays locked for the whole rebuild, so an Upsert or Remove
// issued meanwhile is applied on top of the rebuilt snapshot.
func (s *Store) Rebuild(docs []Document) (*Snapshot, RebuildReport) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]*document.Result, len(docs))
	errs := make([]error, len(docs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, d := range docs {
		g.Go(func() error {
			results[i], errs[i] = s.parse(d.Path, d.Content)
			return nil
		})
	}
	_ = g.Wait()

	report := RebuildReport{Documents: len(docs)}
	b := freshBuilder()
	for i, d := range docs {
		if errs[i] != nil {
			s.parseFailed(d.Path, errs[i])
			report.Failed = append(report.Failed, Failure{Path: d.Path, Err: errs[i]})
			b.remove(d.Path)
			continue
		}
		b.remove(d.Path)
		b.add(results[i])
	}

	snap := s.publish(b)

	report.Elapsed = time.Since(start)
	s.observe(OpRebuild, report.Elapsed, snap)
	slog.Info("index rebuilt",
		slog.Int("documents", report.Documents),
		slog.Int("failed", len(report.Failed)),
		slog.Int("term_keys", len(snap.Terms)),
		slog.Int("scopes", len(snap.Scopes)),
		slog.Duration("elapsed", report.Elapsed))
	return snap, report
}

// Upsert replaces everything path contributed with the entries parsed from
// content. If content fails to parse, path ends up contributing nothing and
// the parse error is returned together with the published snapshot.
func (s *Store) Upsert(path, content string) (*Snapshot, error) {
	start := time.Now()
	res, parseErr := s.parse(path, content)

	s.mu.Lock()
	b := newBuilder(s.current.Load())
	b.remove(path)
	if parseErr == nil {
		b.add(res)
	}
	snap := s.publish(b)
	s.mu.Unlock()

	if parseErr != nil {
		s.parseFailed(path, parseErr)
	}
	s.observe(OpUpsert, time.Since(start), snap)
	return snap, parseErr
}

// Remove drops everything path contributed. Removing an unknown path still
// publishes a new snapshot.
func (s *Store) Remove(path string) *Snapshot {
	start := time.Now()

	s.mu.Lock()
	b := newBuilder(s.current.Load())
	b.remove(path)
	snap := s.publish(b)
	s.mu.Unlock()

	s.observe(OpRemove, time.Since(start), snap)
	return snap
}

// RemoveDir drops every document below dir in one mutation and returns the
// removed paths, sorted. Nothing is published when no document is below dir.
func (s *Store) RemoveDir(dir string) (*Snapshot, []string) {
	start := time.Now()
	prefix := strings.TrimSuffix(dir, "/") + "/"

	s.mu.Lock()
	current := s.current.Load()
	var removed []string
	for path := range current.sources {
		if strings.HasPrefix(path, prefix) {
			removed = append(removed, path)
		}
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return current, nil
	}
	sort.Strings(removed)

	b := newBuilder(current)
	for _, path := range removed {
		b.remove(path)
	}
	snap := s.publish(b)
	s.mu.Unlock()

	s.observe(OpRemove, time.Since(start), snap)
	return snap, removed
}

// publish must be called with s.mu held.
func (s *Store) publish(b *builder) *Snapshot {
	prev := s.current.Load()
	builtAt := s.now().UnixMilli()
	if builtAt <= prev.BuiltAt {
		builtAt = prev.BuiltAt + 1
	}
	snap := b.snapshot(builtAt, prev.Version+1)
	s.current.Store(snap)
	return snap
}

func (s *Store) parseFailed(path string, err error) {
	slog.Warn("document skipped",
		slog.String("path", path),
		wikierrors.LogAttr(err))
	if s.observer != nil {
		s.observer.ParseFailed(path, err)
	}
}

func (s *Store) observe(op string, elapsed time.Duration, snap *Snapshot) {
	if s.observer != nil {
		s.observer.MutationApplied(op, elapsed, snap)
	}
}
