// Package document extracts glossary terms and formulas from markdown documents.
//
// A document may open with a YAML frontmatter block carrying a scope and a list
// of aliases. When aliases are present the document itself defines a term whose
// definition is the document's prose. Inside the prose, inline definitions are
// written as 【name】：definition and formulas as %% [computed] = <external> %%.
//
// Parse is a pure function of the document text and its path.
package document

// Origin records where a term definition came from.
type Origin string

const (
	// OriginFile marks a term defined by the frontmatter alias list.
	OriginFile Origin = "file"
	// OriginInline marks a term defined by an inline marker in the body.
	OriginInline Origin = "inline"
)

// Term is one glossary entry. Name is always Aliases[0].
type Term struct {
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases"`
	Definition string   `json:"definition"`
	Scope      string   `json:"scope"`
	SourcePath string   `json:"sourcePath"`
	Origin     Origin   `json:"origin"`

	// Line is the 1-based line of the marker, or of the first definition
	// line for file-level terms.
	Line int `json:"line"`

	// HasMore is set when a <!-- more --> line cut a file-level definition short.
	HasMore bool `json:"hasMore,omitempty"`
}

// IsInlineIn reports whether t was defined inline in the document at path.
func (t *Term) IsInlineIn(path string) bool {
	return t.Origin == OriginInline && t.SourcePath == path
}

// Formula is one %% ... %% expression occurrence.
type Formula struct {
	Expression    string   `json:"expression"`
	ComputedNames []string `json:"computedNames"`
	ExternalNames []string `json:"externalNames"`
	Scope         string   `json:"scope"`
	SourcePath    string   `json:"sourcePath"`
	Line          int      `json:"line"`
}

// Result is everything a single parse extracts from one document.
type Result struct {
	Path  string
	Scope string

	// FileTerm is nil when the document has no aliases or no prose.
	FileTerm    *Term
	InlineTerms []*Term
	Formulas    []*Formula
}

// Terms returns the file-level term (if any) followed by the inline terms,
// in discovery order.
func (r *Result) Terms() []*Term {
	terms := make([]*Term, 0, len(r.InlineTerms)+1)
	if r.FileTerm != nil {
		terms = append(terms, r.FileTerm)
	}
	return append(terms, r.InlineTerms...)
}

// Empty reports whether the document contributes nothing to an index.
func (r *Result) Empty() bool {
	return r.FileTerm == nil && len(r.InlineTerms) == 0 && len(r.Formulas) == 0
}
