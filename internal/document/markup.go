package document

import (
	"regexp"
	"strings"
)

var (
	// inlineMarker matches 【name】 followed by a fullwidth or ASCII colon.
	inlineMarker = regexp.MustCompile(`【([^】]+)】[：:]`)

	formulaMarker = regexp.MustCompile(`%%([^%]+)%%`)
	computedName  = regexp.MustCompile(`\[([^\]]+)\]`)
	externalName  = regexp.MustCompile(`<([^>]+)>`)

	inlineCode = regexp.MustCompile("`[^`]*`")

	moreMarker = regexp.MustCompile(`(?i)^<!--\s*more\s*-->$`)
)

// fenceState tracks whether the scanner is inside a fenced code block.
// A fence only closes on a line using the same character that opened it.
type fenceState struct {
	char byte
}

func (f *fenceState) inside() bool { return f.char != 0 }

// step consumes one line and reports whether the line belongs to code
// (a fence delimiter or fenced content).
func (f *fenceState) step(line string) bool {
	c, ok := fenceChar(line)
	switch {
	case f.inside() && ok && c == f.char:
		f.char = 0
		return true
	case f.inside():
		return true
	case ok:
		f.char = c
		return true
	}
	return false
}

// fenceChar returns the fence character if the trimmed line starts with
// three or more backticks or tildes.
func fenceChar(line string) (byte, bool) {
	t := strings.TrimSpace(line)
	if len(t) < 3 {
		return 0, false
	}
	c := t[0]
	if c != '`' && c != '~' {
		return 0, false
	}
	if t[1] != c || t[2] != c {
		return 0, false
	}
	return c, true
}

func stripInlineCode(line string) string {
	if !strings.Contains(line, "`") {
		return line
	}
	return inlineCode.ReplaceAllString(line, "")
}

func isMoreMarker(line string) bool {
	return moreMarker.MatchString(strings.TrimSpace(line))
}

type inlineDef struct {
	name       string
	definition string
}

// inlineDefinitions returns every marker on the line. A definition runs
// until the next marker or the end of the line; markers whose name or
// definition is blank are dropped.
func inlineDefinitions(line string) []inlineDef {
	locs := inlineMarker.FindAllStringSubmatchIndex(line, -1)
	if len(locs) == 0 {
		return nil
	}

	defs := make([]inlineDef, 0, len(locs))
	for i, loc := range locs {
		end := len(line)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		name := strings.TrimSpace(line[loc[2]:loc[3]])
		def := strings.TrimSpace(line[loc[1]:end])
		if name == "" || def == "" {
			continue
		}
		defs = append(defs, inlineDef{name: name, definition: def})
	}
	return defs
}

// formulaExpressions returns the trimmed contents of every %% ... %% pair.
func formulaExpressions(line string) []string {
	matches := formulaMarker.FindAllStringSubmatch(line, -1)
	exprs := make([]string, 0, len(matches))
	for _, m := range matches {
		if expr := strings.TrimSpace(m[1]); expr != "" {
			exprs = append(exprs, expr)
		}
	}
	return exprs
}

func bracketed(re *regexp.Regexp, expr string) []string {
	matches := re.FindAllStringSubmatch(expr, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
