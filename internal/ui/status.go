package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// StatusInfo describes the state of an index.
type StatusInfo struct {
	DocsDir     string    `json:"docs_dir"`
	Documents   int       `json:"documents"`
	TermKeys    int       `json:"term_keys"`
	TermEntries int       `json:"term_entries"`
	Formulas    int       `json:"formulas"`
	Scopes      []string  `json:"scopes"`
	Version     uint64    `json:"version"`
	LastIndexed time.Time `json:"last_indexed"`
	Failures    int       `json:"failures,omitempty"`

	WatcherStatus string `json:"watcher_status,omitempty"` // "fsnotify", "polling", "off"
	ServerAddr    string `json:"server_addr,omitempty"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to the terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index: "+info.DocsDir))

	r.field("Documents", fmt.Sprintf("%d", info.Documents))
	r.field("Terms", fmt.Sprintf("%d (%d definitions)", info.TermKeys, info.TermEntries))
	r.field("Formulas", fmt.Sprintf("%d", info.Formulas))
	if len(info.Scopes) > 0 {
		r.field("Scopes", r.styles.Scope.Render(strings.Join(info.Scopes, ", ")))
	}
	if !info.LastIndexed.IsZero() {
		r.field("Built", formatTime(info.LastIndexed))
	}
	if info.Failures > 0 {
		r.field("Skipped", r.styles.Warning.Render(fmt.Sprintf("%d documents failed to parse", info.Failures)))
	}
	if info.WatcherStatus != "" {
		r.field("Watcher", r.renderWatcher(info.WatcherStatus))
	}
	if info.ServerAddr != "" {
		r.field("Listening", info.ServerAddr)
	}
	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) field(label, value string) {
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render(fmt.Sprintf("%-10s", label+":")), value)
}

func (r *StatusRenderer) renderWatcher(status string) string {
	if status == "off" {
		return r.styles.Warning.Render(status)
	}
	return r.styles.Success.Render(status)
}

// formatTime formats a time relative to now.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
