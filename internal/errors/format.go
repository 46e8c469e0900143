package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

func asWikiError(err error) *WikiError {
	var we *WikiError
	if stderrors.As(err, &we) {
		return we
	}
	return Wrap(ErrCodeInternal, err)
}

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	we := asWikiError(err)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", we.Message)
	if path, ok := we.Details["path"]; ok {
		fmt.Fprintf(&sb, "  Path: %s\n", path)
	}
	if we.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", we.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", we.Code)
	return sb.String()
}

// JSONError is the wire form of a WikiError used by the HTTP and MCP layers.
type JSONError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// ToJSON converts any error into its wire form. Plain errors become ERR_501_INTERNAL.
func ToJSON(err error) JSONError {
	we := asWikiError(err)
	je := JSONError{
		Code:       we.Code,
		Message:    we.Message,
		Category:   string(we.Category),
		Severity:   string(we.Severity),
		Details:    we.Details,
		Suggestion: we.Suggestion,
	}
	if we.Cause != nil {
		je.Cause = we.Cause.Error()
	}
	return je
}

// FormatJSON returns the JSON encoding of ToJSON(err).
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(ToJSON(err))
}

// LogAttr renders err as a slog group so handlers keep the code and details
// as separate fields.
func LogAttr(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	var we *WikiError
	if !stderrors.As(err, &we) {
		return slog.String("error", err.Error())
	}

	attrs := []any{
		slog.String("code", we.Code),
		slog.String("message", we.Message),
		slog.String("severity", string(we.Severity)),
	}
	if we.Cause != nil {
		attrs = append(attrs, slog.String("cause", we.Cause.Error()))
	}
	keys := make([]string, 0, len(we.Details))
	for k := range we.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, we.Details[k]))
	}
	return slog.Group("error", attrs...)
}
