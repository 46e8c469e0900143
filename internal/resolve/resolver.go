package resolve

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/termwiki/internal/index"
)

// DefaultCacheSize is the number of suggestion lists kept per resolver.
const DefaultCacheSize = 512

// Outcome classifies a resolution for telemetry.
type Outcome string

const (
	OutcomeExact     Outcome = "exact"
	OutcomeSuggested Outcome = "suggested"
	OutcomeMiss      Outcome = "miss"
	OutcomeInvalid   Outcome = "invalid"
)

// SnapshotSource hands out the current index snapshot.
type SnapshotSource interface {
	Snapshot() *index.Snapshot
}

// Recorder is told about every ResolveTerm call.
type Recorder interface {
	RecordResolve(name string, outcome Outcome, elapsed time.Duration)
}

type cacheKey struct {
	version uint64
	name    string
}

// Resolver resolves references against whatever snapshot its source holds.
// Suggestion lists are cached per snapshot version, so a new snapshot
// invalidates them without any explicit purge.
type Resolver struct {
	source   SnapshotSource
	cache    *lru.Cache[cacheKey, []Suggestion]
	recorder Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCacheSize sets the suggestion cache capacity. Zero or less disables it.
func WithCacheSize(size int) Option {
	return func(r *Resolver) {
		if size <= 0 {
			r.cache = nil
			return
		}
		r.cache, _ = lru.New[cacheKey, []Suggestion](size)
	}
}

// WithRecorder registers a telemetry recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) { r.recorder = rec }
}

// NewResolver creates a resolver reading snapshots from source.
func NewResolver(source SnapshotSource, opts ...Option) *Resolver {
	cache, _ := lru.New[cacheKey, []Suggestion](DefaultCacheSize)
	r := &Resolver{source: source, cache: cache}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveTerm resolves ref against the current snapshot.
func (r *Resolver) ResolveTerm(ref, currentScope, currentPath string) (Result, error) {
	return r.ResolveAt(r.source.Snapshot(), ref, currentScope, currentPath)
}

// ResolveAt resolves ref against snap. Callers that report the snapshot
// version alongside the result load the snapshot once and pass it here.
func (r *Resolver) ResolveAt(snap *index.Snapshot, ref, currentScope, currentPath string) (Result, error) {
	start := time.Now()
	parsed, err := ParseReference(ref)
	if err != nil {
		r.record(ref, OutcomeInvalid, start)
		return Result{}, err
	}

	res := resolve(parsed, snap, currentScope, currentPath, r.suggest)
	switch {
	case res.Exact:
		r.record(parsed.Name, OutcomeExact, start)
	case len(res.Suggestions) > 0:
		r.record(parsed.Name, OutcomeSuggested, start)
	default:
		r.record(parsed.Name, OutcomeMiss, start)
	}
	return res, nil
}

// ApproximateMatches returns the suggestions for name against the current
// snapshot. Exact matches are never included.
func (r *Resolver) ApproximateMatches(name string) []Suggestion {
	return r.suggest(name, r.source.Snapshot())
}

// Snapshot returns the snapshot the next call would resolve against.
func (r *Resolver) Snapshot() *index.Snapshot {
	return r.source.Snapshot()
}

func (r *Resolver) suggest(name string, snap *index.Snapshot) []Suggestion {
	if r.cache == nil {
		return ApproximateMatches(name, snap)
	}
	key := cacheKey{version: snap.Version, name: name}
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}
	out := ApproximateMatches(name, snap)
	r.cache.Add(key, out)
	return out
}

func (r *Resolver) record(name string, outcome Outcome, start time.Time) {
	if r.recorder != nil {
		r.recorder.RecordResolve(name, outcome, time.Since(start))
	}
}
