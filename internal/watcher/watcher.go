package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was moved away from Path.
	// The new name, if it stays inside the tree, arrives as a separate CREATE.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is the slash-separated path relative to the watched root.
	Path string

	// OldPath is the previous path when a rename is reported as one event.
	OldPath string

	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Watcher emits debounced batches of file events for a directory tree.
type Watcher interface {
	// Start watches path recursively until Stop is called or ctx ends.
	Start(ctx context.Context, path string) error

	// Stop releases resources. Safe to call multiple times.
	Stop() error

	// Events returns batches of coalesced events. Closed on Stop.
	Events() <-chan []FileEvent

	// Errors returns non-fatal watcher errors. Closed on Stop.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 200ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s
	PollInterval time.Duration

	// EventBufferSize is the size of the batch channel buffer.
	// Default: 1000
	EventBufferSize int

	// IgnorePatterns are doublestar patterns for paths to skip. Hidden
	// files and directories are always skipped.
	IgnorePatterns []string

	// ForcePolling skips fsnotify even when it is available.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 1000,
	}
}

// Validate checks durations and patterns.
func (o Options) Validate() error {
	if o.DebounceWindow < 0 {
		return fmt.Errorf("debounce window must not be negative: %s", o.DebounceWindow)
	}
	if o.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative: %s", o.PollInterval)
	}
	for _, p := range o.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return nil
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
