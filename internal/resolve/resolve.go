// Package resolve answers "what does this name mean here" against an index
// snapshot.
//
// A reference is either a bare name or scope/name. Exact hits are ranked so
// that a definition made inline in the current document comes first, then
// definitions from the requested (or current) scope, then global ones, then
// everything else. When nothing matches, the closest aliases by edit
// distance are offered instead.
package resolve

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/Aman-CERP/termwiki/internal/document"
	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/index"
)

const (
	// MaxSuggestions caps the approximate matches returned for a miss.
	MaxSuggestions = 5

	// MaxDistance is the largest edit distance still offered as a suggestion.
	MaxDistance = 3
)

// Reference is a parsed term reference.
type Reference struct {
	// Scope is the explicit scope, empty when none was given.
	Scope string
	Name  string
}

// Explicit reports whether the reference named a scope.
func (r Reference) Explicit() bool { return r.Scope != "" }

func (r Reference) String() string {
	if r.Explicit() {
		return r.Scope + "/" + r.Name
	}
	return r.Name
}

// ParseReference splits ref at its first slash into scope and name.
// Empty references and references with an empty side of the slash are
// rejected with ERR_407_INVALID_REFERENCE.
func ParseReference(ref string) (Reference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Reference{}, invalidReference(ref, "reference is empty")
	}

	scope, name, found := strings.Cut(ref, "/")
	if !found {
		return Reference{Name: ref}, nil
	}
	scope, name = strings.TrimSpace(scope), strings.TrimSpace(name)
	switch {
	case scope == "":
		return Reference{}, invalidReference(ref, "reference has an empty scope before '/'")
	case name == "":
		return Reference{}, invalidReference(ref, "reference has an empty name after '/'")
	}
	return Reference{Scope: scope, Name: name}, nil
}

func invalidReference(ref, msg string) error {
	return wikierrors.New(wikierrors.ErrCodeInvalidReference, msg, nil).
		WithDetail("reference", ref).
		WithSuggestion("use name or scope/name")
}

// Suggestion is an alias close to a name that had no exact entry.
type Suggestion struct {
	Term     string           `json:"term"`
	Distance int              `json:"distance"`
	Sources  []*document.Term `json:"sources"`
}

// Result is the outcome of resolving a reference.
type Result struct {
	Definitions []*document.Term `json:"definitions"`
	Exact       bool             `json:"exact"`
	Suggestions []Suggestion     `json:"suggestions"`
}

// ResolveTerm looks up ref in snap. currentScope and currentPath describe
// where the reference appears.
func ResolveTerm(ref string, snap *index.Snapshot, currentScope, currentPath string) (Result, error) {
	r, err := ParseReference(ref)
	if err != nil {
		return Result{}, err
	}
	return resolve(r, snap, currentScope, currentPath, ApproximateMatches), nil
}

func resolve(r Reference, snap *index.Snapshot, currentScope, currentPath string, suggest func(string, *index.Snapshot) []Suggestion) Result {
	entries := snap.Lookup(r.Name)
	if len(entries) == 0 {
		return Result{
			Definitions: []*document.Term{},
			Suggestions: suggest(r.Name, snap),
		}
	}

	defs := make([]*document.Term, len(entries))
	copy(defs, entries)
	sort.SliceStable(defs, func(i, j int) bool {
		return Rank(defs[i], r.Scope, currentScope, currentPath) < Rank(defs[j], r.Scope, currentScope, currentPath)
	})
	return Result{Definitions: defs, Exact: true, Suggestions: []Suggestion{}}
}

// Rank orders a definition for a reference; lower ranks come first.
//
//	0: defined inline in currentPath
//	1: scope equals the explicit scope, or currentScope when none was given
//	2: global
//	3: any other scope
func Rank(t *document.Term, explicitScope, currentScope, currentPath string) int {
	if t.IsInlineIn(currentPath) {
		return 0
	}
	preferred := currentScope
	if explicitScope != "" {
		preferred = explicitScope
	}
	switch {
	case preferred != "" && t.Scope == preferred:
		return 1
	case t.Scope == "":
		return 2
	default:
		return 3
	}
}

// FilterByScope keeps the definitions visible from a passive reference.
// With an explicit scope only that scope and globals pass. Otherwise inline
// definitions of currentPath, currentScope and globals pass. Definitions
// from unrelated scopes never pass.
func FilterByScope(defs []*document.Term, explicitScope, currentScope, currentPath string) []*document.Term {
	out := make([]*document.Term, 0, len(defs))
	for _, t := range defs {
		var keep bool
		if explicitScope != "" {
			keep = t.Scope == explicitScope || t.Scope == ""
		} else {
			keep = t.IsInlineIn(currentPath) ||
				(currentScope != "" && t.Scope == currentScope) ||
				t.Scope == ""
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}

// ApproximateMatches returns up to MaxSuggestions aliases whose edit
// distance to name is between 1 and MaxDistance, closest first. Aliases at
// the same distance keep index key order.
func ApproximateMatches(name string, snap *index.Snapshot) []Suggestion {
	out := []Suggestion{}
	n := utf8.RuneCountInString(name)
	for _, key := range snap.TermKeys {
		if diff := utf8.RuneCountInString(key) - n; diff > MaxDistance || -diff > MaxDistance {
			continue
		}
		d := EditDistance(key, name)
		if d < 1 || d > MaxDistance {
			continue
		}
		out = append(out, Suggestion{Term: key, Distance: d, Sources: snap.Lookup(key)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// EditDistance is the Levenshtein distance between a and b counted in
// runes, so each CJK character is one unit.
func EditDistance(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}
