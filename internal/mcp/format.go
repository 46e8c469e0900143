package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/termwiki/internal/document"
	"github.com/Aman-CERP/termwiki/internal/resolve"
)

// FormatResolution formats a resolve_term result as markdown.
func FormatResolution(ref string, res resolve.Result) string {
	var sb strings.Builder

	if !res.Exact {
		fmt.Fprintf(&sb, "No definition found for \"%s\"", ref)
		if len(res.Suggestions) == 0 {
			return sb.String()
		}
		sb.WriteString("\n\n## Did you mean\n\n")
		for _, s := range res.Suggestions {
			fmt.Fprintf(&sb, "- **%s** (distance %d", s.Term, s.Distance)
			if len(s.Sources) > 0 {
				fmt.Fprintf(&sb, ", %s", sourceList(s.Sources))
			}
			sb.WriteString(")\n")
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "## %s\n\n", ref)
	fmt.Fprintf(&sb, "Found %d definition", len(res.Definitions))
	if len(res.Definitions) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, t := range res.Definitions {
		formatTerm(&sb, i+1, t)
	}
	return sb.String()
}

// FormatTerms formats search_terms results as markdown.
func FormatTerms(query string, terms []*document.Term, total int) string {
	if len(terms) == 0 {
		return fmt.Sprintf("No terms match \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Terms matching \"%s\"\n\n", query)
	if total > len(terms) {
		fmt.Fprintf(&sb, "Showing %d of %d\n\n", len(terms), total)
	}
	for i, t := range terms {
		formatTerm(&sb, i+1, t)
	}
	return sb.String()
}

// FormatSuggestions formats suggest_terms results as markdown.
func FormatSuggestions(name string, suggestions []resolve.Suggestion) string {
	if len(suggestions) == 0 {
		return fmt.Sprintf("No names close to \"%s\"", name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Names close to \"%s\"\n\n", name)
	for _, s := range suggestions {
		fmt.Fprintf(&sb, "- **%s** (distance %d", s.Term, s.Distance)
		if len(s.Sources) > 0 {
			fmt.Fprintf(&sb, ", %s", sourceList(s.Sources))
		}
		sb.WriteString(")\n")
	}
	return sb.String()
}

// FormatStatus formats index_status output as markdown.
func FormatStatus(out IndexStatusOutput) string {
	var sb strings.Builder
	sb.WriteString("## Index status\n\n")
	fmt.Fprintf(&sb, "- **Root:** %s\n", out.RootPath)
	fmt.Fprintf(&sb, "- **Documents:** %d\n", out.Stats.Documents)
	fmt.Fprintf(&sb, "- **Terms:** %d names, %d definitions\n", out.Stats.TermKeys, out.Stats.TermEntries)
	fmt.Fprintf(&sb, "- **Formulas:** %d\n", out.Stats.Formulas)
	if len(out.Scopes) > 0 {
		fmt.Fprintf(&sb, "- **Scopes:** %s\n", strings.Join(out.Scopes, ", "))
	} else {
		sb.WriteString("- **Scopes:** none\n")
	}
	if out.LastIndexed != "" {
		fmt.Fprintf(&sb, "- **Last indexed:** %s (version %d)\n", out.LastIndexed, out.Stats.Version)
	}

	if r := out.Resolve; r != nil {
		sb.WriteString("\n### Lookups\n\n")
		fmt.Fprintf(&sb, "- **Total:** %d (%.1f%% without an exact hit)\n", r.Total, r.MissRate)
		if len(r.TopNames) > 0 {
			fmt.Fprintf(&sb, "- **Most requested:** %s\n", strings.Join(r.TopNames, ", "))
		}
		if len(r.RecentMisses) > 0 {
			fmt.Fprintf(&sb, "- **Recent misses:** %s\n", strings.Join(r.RecentMisses, ", "))
		}
	}
	return sb.String()
}

// FormatRebuild formats rebuild_index output as markdown.
func FormatRebuild(out RebuildOutput) string {
	return fmt.Sprintf("Index rebuilt in %dms: %d documents, %d names, %d formulas, %d scopes\n",
		out.DurationMs, out.Stats.Documents, out.Stats.TermKeys, out.Stats.Formulas, out.Stats.Scopes)
}

func formatTerm(sb *strings.Builder, num int, t *document.Term) {
	if t == nil {
		return
	}

	fmt.Fprintf(sb, "### %d. %s (%s, %s:%d)\n", num, t.Name, scopeLabel(t.Scope), t.SourcePath, t.Line)
	if len(t.Aliases) > 1 {
		fmt.Fprintf(sb, "**Aliases:** %s\n", strings.Join(t.Aliases[1:], ", "))
	}
	sb.WriteString("\n")
	sb.WriteString(t.Definition)
	if t.HasMore {
		sb.WriteString("\n\n_(continues in the document)_")
	}
	sb.WriteString("\n\n")
}

func sourceList(terms []*document.Term) string {
	seen := make(map[string]bool, len(terms))
	paths := make([]string, 0, len(terms))
	for _, t := range terms {
		if !seen[t.SourcePath] {
			seen[t.SourcePath] = true
			paths = append(paths, t.SourcePath)
		}
	}
	return strings.Join(paths, ", ")
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "global"
	}
	return "scope " + scope
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > max {
		return max
	}
	return limit
}
