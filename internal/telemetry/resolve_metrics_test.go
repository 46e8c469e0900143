package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/termwiki/internal/resolve"
)

func TestCircularBuffer_MaintainsCapacity(t *testing.T) {
	buf := NewCircularBuffer[string](3)

	for _, s := range []string{"a", "b", "c", "d", "e"} {
		buf.Add(s)
	}

	assert.Equal(t, 3, buf.Size())
	assert.Equal(t, []string{"c", "d", "e"}, buf.Items())
}

func TestCircularBuffer_EmptyItems(t *testing.T) {
	buf := NewCircularBuffer[string](0)

	items := buf.Items()

	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		latency time.Duration
		want    LatencyBucket
	}{
		{0, BucketP1},
		{999 * time.Microsecond, BucketP1},
		{time.Millisecond, BucketP10},
		{9 * time.Millisecond, BucketP10},
		{10 * time.Millisecond, BucketP50},
		{49 * time.Millisecond, BucketP50},
		{50 * time.Millisecond, BucketP100},
		{time.Second, BucketP100},
	}

	for _, tt := range tests {
		t.Run(tt.latency.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, LatencyToBucket(tt.latency))
		})
	}
}

func TestResolveMetrics_Record(t *testing.T) {
	// Given: an empty aggregate
	m := NewResolveMetrics(DefaultResolveMetricsConfig())

	// When: a mix of lookups is recorded
	m.RecordResolve("暴击", resolve.OutcomeExact, 100*time.Microsecond)
	m.RecordResolve("暴击", resolve.OutcomeExact, 2*time.Millisecond)
	m.RecordResolve("暴击伤血", resolve.OutcomeSuggested, 100*time.Microsecond)
	m.RecordResolve("nothing", resolve.OutcomeMiss, 100*time.Microsecond)
	m.RecordResolve("", resolve.OutcomeInvalid, 100*time.Microsecond)

	// Then: outcomes, names, misses and latencies are aggregated
	snap := m.Snapshot()
	assert.Equal(t, int64(5), snap.Total)
	assert.Equal(t, int64(2), snap.Outcomes[resolve.OutcomeExact])
	assert.Equal(t, int64(1), snap.Outcomes[resolve.OutcomeInvalid])
	require.NotEmpty(t, snap.TopNames)
	assert.Equal(t, NameCount{Name: "暴击", Count: 2}, snap.TopNames[0])
	assert.Len(t, snap.TopNames, 3)
	assert.Equal(t, []string{"暴击伤血", "nothing"}, snap.RecentMisses)
	assert.Equal(t, int64(4), snap.LatencyDistribution[BucketP1])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP10])
	assert.InDelta(t, 40.0, snap.MissRate(), 0.001)
}

func TestResolveMetrics_TopNamesBounded(t *testing.T) {
	m := NewResolveMetrics(ResolveMetricsConfig{TopNamesCapacity: 2, RecentMissesCapacity: 2})

	m.RecordResolve("a", resolve.OutcomeExact, 0)
	m.RecordResolve("b", resolve.OutcomeExact, 0)
	m.RecordResolve("c", resolve.OutcomeExact, 0)

	snap := m.Snapshot()
	assert.Len(t, snap.TopNames, 2)
	for _, nc := range snap.TopNames {
		assert.NotEqual(t, "a", nc.Name)
	}
}

func TestResolveSnapshot_MissRate_Empty(t *testing.T) {
	snap := NewResolveMetrics(DefaultResolveMetricsConfig()).Snapshot()

	assert.Zero(t, snap.MissRate())
}

func TestResolveMetrics_Concurrent(t *testing.T) {
	m := NewResolveMetrics(DefaultResolveMetricsConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordResolve("x", resolve.OutcomeExact, time.Microsecond)
				_ = m.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), m.Snapshot().Total)
}
