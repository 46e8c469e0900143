package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"create", OpCreate, "CREATE"},
		{"modify", OpModify, "MODIFY"},
		{"delete", OpDelete, "DELETE"},
		{"rename", OpRename, "RENAME"},
		{"unknown", Operation(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 200*time.Millisecond, opts.DebounceWindow)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
	assert.Equal(t, 1000, opts.EventBufferSize)
	assert.Empty(t, opts.IgnorePatterns)
	assert.False(t, opts.ForcePolling)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero", Options{}, false},
		{"negative debounce", Options{DebounceWindow: -time.Second}, true},
		{"negative poll", Options{PollInterval: -time.Second}, true},
		{"valid pattern", Options{IgnorePatterns: []string{"drafts/**"}}, false},
		{"broken pattern", Options{IgnorePatterns: []string{"[drafts"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	// Given: options with only the debounce window set
	opts := Options{DebounceWindow: 50 * time.Millisecond}

	// When: applying defaults
	got := opts.WithDefaults()

	// Then: explicit values survive and zero values are filled
	assert.Equal(t, 50*time.Millisecond, got.DebounceWindow)
	assert.Equal(t, 5*time.Second, got.PollInterval)
	assert.Equal(t, 1000, got.EventBufferSize)
}

func TestPathFilter_Ignored(t *testing.T) {
	f := newPathFilter([]string{"drafts/**", "**/*.tmp"})

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"index.md", false, false},
		{"combat/damage.md", false, false},
		{"", false, true},
		{".", true, true},
		{".git", true, true},
		{".git/HEAD", false, true},
		{"combat/.damage.md.swp", false, true},
		{"drafts", true, true},
		{"drafts/wip.md", false, true},
		{"drafts/deep/wip.md", false, true},
		{"combat/save.tmp", false, true},
		{"draftsman.md", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ignored(tt.path, tt.isDir))
		})
	}
}
