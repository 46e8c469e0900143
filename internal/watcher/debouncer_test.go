package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []FileEvent {
	t.Helper()
	select {
	case events := <-d.Output():
		return events
	case <-time.After(timeout):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: a single event is added
	d.Add(FileEvent{Path: "terms.md", Operation: OpCreate, Timestamp: time.Now()})

	// Then: the event passes through after the debounce window
	events := receiveBatch(t, d, 500*time.Millisecond)
	require.Len(t, events, 1)
	assert.Equal(t, "terms.md", events[0].Path)
	assert.Equal(t, OpCreate, events[0].Operation)
}

func TestDebouncer_MultipleEventsForSameFile_Coalesces(t *testing.T) {
	// Given: a debouncer
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	// When: an editor saves the same file five times in a row
	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "terms.md", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(10 * time.Millisecond)
	}

	// Then: one MODIFY comes out
	events := receiveBatch(t, d, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, OpModify, events[0].Operation)
}

func TestDebouncer_Coalescing(t *testing.T) {
	tests := []struct {
		name   string
		ops    []Operation
		want   Operation
		cancel bool
	}{
		{"create then modify", []Operation{OpCreate, OpModify}, OpCreate, false},
		{"create then delete", []Operation{OpCreate, OpDelete}, 0, true},
		{"create then rename away", []Operation{OpCreate, OpRename}, 0, true},
		{"modify then delete", []Operation{OpModify, OpDelete}, OpDelete, false},
		{"delete then create", []Operation{OpDelete, OpCreate}, OpModify, false},
		{"rename then create", []Operation{OpRename, OpCreate}, OpModify, false},
		{"delete, create, modify", []Operation{OpDelete, OpCreate, OpModify}, OpModify, false},
		{"modify, delete, create", []Operation{OpModify, OpDelete, OpCreate}, OpModify, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(30 * time.Millisecond)
			defer d.Stop()

			for _, op := range tt.ops {
				d.Add(FileEvent{Path: "a.md", Operation: op, Timestamp: time.Now()})
			}
			// A marker on another path guarantees a batch even when a.md cancels out.
			d.Add(FileEvent{Path: "marker.md", Operation: OpModify, Timestamp: time.Now()})

			events := receiveBatch(t, d, time.Second)
			var got []FileEvent
			for _, e := range events {
				if e.Path == "a.md" {
					got = append(got, e)
				}
			}
			if tt.cancel {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Operation)
		})
	}
}

func TestDebouncer_CreateThenDelete_NoEvent(t *testing.T) {
	// Given: a debouncer
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: a file is created and deleted within the window
	d.Add(FileEvent{Path: "temp.md", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "temp.md", Operation: OpDelete, Timestamp: time.Now()})

	// Then: nothing is emitted
	select {
	case events := <-d.Output():
		t.Fatalf("expected no events, got %v", events)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDebouncer_PreservesFirstSeenOrder(t *testing.T) {
	// Given: a debouncer
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: several paths change, one of them twice
	paths := []string{"c.md", "a.md", "e.md", "b.md", "d.md"}
	for _, p := range paths {
		d.Add(FileEvent{Path: p, Operation: OpModify, Timestamp: time.Now()})
	}
	d.Add(FileEvent{Path: "c.md", Operation: OpModify, Timestamp: time.Now()})

	// Then: the batch lists paths in the order they first appeared
	events := receiveBatch(t, d, time.Second)
	var got []string
	for _, e := range events {
		got = append(got, e.Path)
	}
	assert.Equal(t, paths, got)
}

func TestDebouncer_DifferentFiles_IndependentEvents(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.md", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "b.md", Operation: OpDelete, Timestamp: time.Now()})

	events := receiveBatch(t, d, time.Second)
	require.Len(t, events, 2)
	assert.Equal(t, OpCreate, events[0].Operation)
	assert.Equal(t, OpDelete, events[1].Operation)
}

func TestDebouncer_Stop_ClosesOutput(t *testing.T) {
	// Given: a debouncer with a pending event
	d := NewDebouncer(time.Hour)
	d.Add(FileEvent{Path: "a.md", Operation: OpCreate})

	// When: stopping twice
	d.Stop()
	d.Stop()

	// Then: output is closed and later adds are ignored
	_, ok := <-d.Output()
	assert.False(t, ok, "output channel should be closed")
	d.Add(FileEvent{Path: "b.md", Operation: OpCreate})
}
