// Package output provides consistent CLI output formatting for termwiki commands.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/termwiki/internal/document"
	"github.com/Aman-CERP/termwiki/internal/resolve"
	"github.com/Aman-CERP/termwiki/internal/ui"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles ui.Styles
}

// New creates a new output Writer. Colors are used only when out is a
// terminal and NO_COLOR is unset.
func New(out io.Writer) *Writer {
	return &Writer{
		out:    out,
		styles: ui.GetStyles(!ui.UseColor(out)),
	}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Term prints one definition with its origin and an indented body.
func (w *Writer) Term(t *document.Term) {
	if t == nil {
		return
	}
	where := "global"
	if t.Scope != "" {
		where = w.styles.Scope.Render(t.Scope)
	}
	_, _ = fmt.Fprintf(w.out, "%s  %s %s\n",
		w.styles.Term.Render(t.Name),
		where,
		w.styles.Path.Render(fmt.Sprintf("%s:%d", t.SourcePath, t.Line)))
	if len(t.Aliases) > 1 {
		_, _ = fmt.Fprintf(w.out, "  %s %s\n", w.styles.Label.Render("aka"), strings.Join(t.Aliases[1:], ", "))
	}
	for _, line := range strings.Split(t.Definition, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	if t.HasMore {
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Dim.Render("…"))
	}
}

// Resolution prints the outcome of resolving ref: every definition on a
// hit, otherwise the closest spellings.
func (w *Writer) Resolution(ref string, res resolve.Result) {
	if res.Exact {
		for i, t := range res.Definitions {
			if i > 0 {
				w.Newline()
			}
			w.Term(t)
		}
		return
	}
	w.Warningf("No definition for %q", ref)
	if len(res.Suggestions) == 0 {
		return
	}
	w.Status("", "Did you mean:")
	w.Suggestions(res.Suggestions)
}

// Suggestions prints one line per suggestion.
func (w *Writer) Suggestions(suggestions []resolve.Suggestion) {
	for _, s := range suggestions {
		_, _ = fmt.Fprintf(w.out, "   %s %s\n",
			w.styles.Term.Render(s.Term),
			w.styles.Dim.Render(fmt.Sprintf("(distance %d)", s.Distance)))
	}
}
