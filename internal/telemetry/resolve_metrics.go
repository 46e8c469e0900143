// Package telemetry records how the index is used and how it changes.
// Everything stays in process: ResolveMetrics keeps in-memory aggregates
// for status output, and Metrics exports Prometheus collectors.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/termwiki/internal/resolve"
)

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP1   LatencyBucket = "p1"   // <1ms
	BucketP10  LatencyBucket = "p10"  // 1-10ms
	BucketP50  LatencyBucket = "p50"  // 10-50ms
	BucketP100 LatencyBucket = "p100" // >=50ms
)

// LatencyToBucket converts a duration to its histogram bucket. Resolution
// runs in memory, so the buckets are much finer than for disk-bound work.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketP1
	case d < 10*time.Millisecond:
		return BucketP10
	case d < 50*time.Millisecond:
		return BucketP50
	default:
		return BucketP100
	}
}

// NameCount is a looked-up name and how often it was asked for.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// ResolveSnapshot is a copy of the resolution aggregates.
type ResolveSnapshot struct {
	Outcomes            map[resolve.Outcome]int64 `json:"outcomes"`
	TopNames            []NameCount               `json:"top_names"`
	RecentMisses        []string                  `json:"recent_misses"`
	LatencyDistribution map[LatencyBucket]int64   `json:"latency_distribution"`
	Total               int64                     `json:"total"`
	Since               time.Time                 `json:"since"`
}

// MissRate returns the share of lookups that found no definition, in percent.
func (s *ResolveSnapshot) MissRate() float64 {
	if s.Total == 0 {
		return 0
	}
	misses := s.Outcomes[resolve.OutcomeMiss] + s.Outcomes[resolve.OutcomeSuggested]
	return float64(misses) / float64(s.Total) * 100
}

// ResolveMetricsConfig configures the in-memory aggregates.
type ResolveMetricsConfig struct {
	TopNamesCapacity     int // Max names to track (default: 100)
	RecentMissesCapacity int // Max unresolved names to keep (default: 100)
}

// DefaultResolveMetricsConfig returns sensible defaults.
func DefaultResolveMetricsConfig() ResolveMetricsConfig {
	return ResolveMetricsConfig{
		TopNamesCapacity:     100,
		RecentMissesCapacity: 100,
	}
}

// ResolveMetrics aggregates term resolutions. Safe for concurrent use.
type ResolveMetrics struct {
	mu        sync.Mutex
	outcomes  map[resolve.Outcome]int64
	topNames  *lru.Cache[string, int64]
	misses    *CircularBuffer[string]
	latencies map[LatencyBucket]int64
	total     int64
	startTime time.Time
}

// NewResolveMetrics creates an empty aggregate.
func NewResolveMetrics(cfg ResolveMetricsConfig) *ResolveMetrics {
	if cfg.TopNamesCapacity <= 0 {
		cfg.TopNamesCapacity = 100
	}
	if cfg.RecentMissesCapacity <= 0 {
		cfg.RecentMissesCapacity = 100
	}
	topNames, _ := lru.New[string, int64](cfg.TopNamesCapacity)
	return &ResolveMetrics{
		outcomes:  make(map[resolve.Outcome]int64),
		topNames:  topNames,
		misses:    NewCircularBuffer[string](cfg.RecentMissesCapacity),
		latencies: make(map[LatencyBucket]int64),
		startTime: time.Now(),
	}
}

var _ resolve.Recorder = (*ResolveMetrics)(nil)

// RecordResolve counts one resolution.
func (m *ResolveMetrics) RecordResolve(name string, outcome resolve.Outcome, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.outcomes[outcome]++
	m.latencies[LatencyToBucket(elapsed)]++

	name = strings.TrimSpace(name)
	if name == "" || outcome == resolve.OutcomeInvalid {
		return
	}
	count, _ := m.topNames.Get(name)
	m.topNames.Add(name, count+1)

	if outcome == resolve.OutcomeMiss || outcome == resolve.OutcomeSuggested {
		m.misses.Add(name)
	}
}

// Snapshot returns the current aggregates. TopNames is sorted by count,
// most frequent first, ties by name.
func (m *ResolveMetrics) Snapshot() *ResolveSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcomes := make(map[resolve.Outcome]int64, len(m.outcomes))
	for k, v := range m.outcomes {
		outcomes[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	top := make([]NameCount, 0, m.topNames.Len())
	for _, name := range m.topNames.Keys() {
		if count, ok := m.topNames.Peek(name); ok {
			top = append(top, NameCount{Name: name, Count: count})
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Name < top[j].Name
	})

	return &ResolveSnapshot{
		Outcomes:            outcomes,
		TopNames:            top,
		RecentMisses:        m.misses.Items(),
		LatencyDistribution: latencies,
		Total:               m.total,
		Since:               m.startTime,
	}
}
