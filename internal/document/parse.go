package document

import (
	"strings"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
)

// Parse extracts the terms and formulas of the document at path.
//
// The only failure is a malformed frontmatter block, reported as a
// ERR_207_DOCUMENT_MALFORMED error. Callers index nothing for such a document.
func Parse(path, text string) (*Result, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	metaLines, bodyStart := splitFrontmatter(lines)
	md, err := parseMetadata(metaLines)
	if err != nil {
		return nil, wikierrors.ParseError(path, "frontmatter is not valid", err).
			WithSuggestion("scope must be a string and alias a list of strings")
	}

	body := lines[bodyStart:]
	res := &Result{Path: path, Scope: md.Scope}

	if len(md.Aliases) > 0 {
		res.FileTerm = fileTerm(path, md, body, bodyStart)
	}
	scanBody(res, body, bodyStart)
	return res, nil
}

// fileTerm builds the term a document defines through its alias list. It
// returns nil when no prose survives the filtering.
func fileTerm(path string, md metadata, body []string, offset int) *Term {
	var (
		kept      []string
		firstLine int
		hasMore   bool
	)
	for i, line := range body {
		if isMoreMarker(line) {
			hasMore = true
			break
		}
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, frontmatterDelim) {
			continue
		}
		if inlineMarker.MatchString(line) {
			continue
		}
		if firstLine == 0 {
			firstLine = offset + i + 1
		}
		kept = append(kept, line)
	}

	def := strings.TrimSpace(strings.Join(kept, "\n"))
	if def == "" {
		return nil
	}
	return &Term{
		Name:       md.Aliases[0],
		Aliases:    md.Aliases,
		Definition: def,
		Scope:      md.Scope,
		SourcePath: path,
		Origin:     OriginFile,
		Line:       firstLine,
		HasMore:    hasMore,
	}
}

// scanBody walks the body once, skipping fenced code, and collects inline
// definitions and formulas. Both matchers see the same cleaned line and do
// not take precedence over each other.
func scanBody(res *Result, body []string, offset int) {
	var fence fenceState
	for i, raw := range body {
		if fence.step(raw) {
			continue
		}
		line := stripInlineCode(raw)
		lineNo := offset + i + 1

		for _, d := range inlineDefinitions(line) {
			res.InlineTerms = append(res.InlineTerms, &Term{
				Name:       d.name,
				Aliases:    []string{d.name},
				Definition: d.definition,
				Scope:      res.Scope,
				SourcePath: res.Path,
				Origin:     OriginInline,
				Line:       lineNo,
			})
		}

		// Definition and formula markers are matched independently; a line
		// carrying both yields both, with no precedence between them.
		for _, expr := range formulaExpressions(line) {
			res.Formulas = append(res.Formulas, &Formula{
				Expression:    expr,
				ComputedNames: bracketed(computedName, expr),
				ExternalNames: bracketed(externalName, expr),
				Scope:         res.Scope,
				SourcePath:    res.Path,
				Line:          lineNo,
			})
		}
	}
}
