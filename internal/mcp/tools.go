package mcp

import (
	"github.com/Aman-CERP/termwiki/internal/document"
	"github.com/Aman-CERP/termwiki/internal/index"
	"github.com/Aman-CERP/termwiki/internal/resolve"
)

// Tool names.
const (
	ToolResolveTerm  = "resolve_term"
	ToolSuggestTerms = "suggest_terms"
	ToolSearchTerms  = "search_terms"
	ToolIndexStatus  = "index_status"
	ToolRebuildIndex = "rebuild_index"
)

// DefaultSearchLimit caps search_terms results when no limit is given.
const DefaultSearchLimit = 20

// ResolveInput defines the input schema for the resolve_term tool.
type ResolveInput struct {
	Ref   string `json:"ref" jsonschema:"term reference, either name or scope/name"`
	Scope string `json:"scope,omitempty" jsonschema:"scope of the document the reference appears in"`
	Path  string `json:"path,omitempty" jsonschema:"relative path of the document the reference appears in"`
}

// ResolveOutput defines the output schema for the resolve_term tool.
type ResolveOutput struct {
	Ref         string               `json:"ref"`
	Exact       bool                 `json:"exact"`
	Definitions []*document.Term     `json:"definitions"`
	Suggestions []resolve.Suggestion `json:"suggestions"`
	Version     uint64               `json:"version"`
}

// SuggestInput defines the input schema for the suggest_terms tool.
type SuggestInput struct {
	Name string `json:"name" jsonschema:"name to find close matches for"`
}

// SuggestOutput defines the output schema for the suggest_terms tool.
type SuggestOutput struct {
	Name        string               `json:"name"`
	Suggestions []resolve.Suggestion `json:"suggestions"`
}

// SearchInput defines the input schema for the search_terms tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"substring to look for in term names"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of terms, default 20"`
}

// SearchOutput defines the output schema for the search_terms tool.
type SearchOutput struct {
	Query string           `json:"query"`
	Terms []*document.Term `json:"terms"`
	Total int              `json:"total"` // Matches before the limit was applied
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	RootPath    string           `json:"root_path"`
	Stats       index.Stats      `json:"stats"`
	Scopes      []string         `json:"scopes"`
	LastIndexed string           `json:"last_indexed"`
	Resolve     *ResolveActivity `json:"resolve,omitempty"` // Present when telemetry is enabled
}

// ResolveActivity summarizes recent resolve_term traffic.
type ResolveActivity struct {
	Total        int64    `json:"total"`
	MissRate     float64  `json:"miss_rate"` // Percent of lookups without an exact hit
	TopNames     []string `json:"top_names"`
	RecentMisses []string `json:"recent_misses"`
}

// RebuildInput defines the input schema for the rebuild_index tool (no parameters).
type RebuildInput struct{}

// RebuildOutput defines the output schema for the rebuild_index tool.
type RebuildOutput struct {
	Stats      index.Stats `json:"stats"`
	DurationMs int64       `json:"duration_ms"`
}
