package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/termwiki/internal/document"
	"github.com/Aman-CERP/termwiki/internal/index"
	"github.com/Aman-CERP/termwiki/internal/resolve"
	"github.com/Aman-CERP/termwiki/internal/telemetry"
	"github.com/Aman-CERP/termwiki/pkg/version"
)

const maxSearchLimit = 200

// Server is the MCP server for termwiki.
// It lets AI clients look up glossary terms in the live index.
type Server struct {
	mcp         *mcp.Server
	coordinator *index.Coordinator
	resolver    *resolve.Resolver
	logger      *slog.Logger
	rootPath    string

	// Resolve telemetry (optional, set via SetMetrics)
	metrics *telemetry.ResolveMetrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var toolInfos = []ToolInfo{
	{
		Name:        ToolResolveTerm,
		Description: "Resolve a glossary term reference (name or scope/name) to its definitions, best match first. Pass the scope and path of the document you are reading so local definitions rank higher. Returns close spellings when nothing matches.",
	},
	{
		Name:        ToolSuggestTerms,
		Description: "List glossary names within a small edit distance of a name. Use when a term is misspelled or only partly remembered.",
	},
	{
		Name:        ToolSearchTerms,
		Description: "Find glossary terms whose name contains a substring.",
	},
	{
		Name:        ToolIndexStatus,
		Description: "Report index size, scopes, build time and recent lookup activity.",
	},
	{
		Name:        ToolRebuildIndex,
		Description: "Re-read every document and rebuild the glossary index from scratch.",
	},
}

// NewServer creates a new MCP server over a coordinator and a resolver
// bound to the same index.
func NewServer(coordinator *index.Coordinator, resolver *resolve.Resolver, rootPath string) (*Server, error) {
	if coordinator == nil {
		return nil, errors.New("coordinator is required")
	}
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}

	s := &Server{
		coordinator: coordinator,
		resolver:    resolver,
		logger:      slog.Default(),
		rootPath:    rootPath,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    version.Name,
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s, nil
}

// SetMetrics attaches resolve telemetry reported by index_status.
func (s *Server) SetMetrics(m *telemetry.ResolveMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return version.Name, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolInfos))
	copy(out, toolInfos)
	return out
}

// CallTool invokes a tool by name with the given arguments, bypassing the
// protocol layer.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolResolveTerm:
		_, out, err := s.mcpResolveHandler(ctx, nil, ResolveInput{
			Ref:   stringArg(args, "ref"),
			Scope: stringArg(args, "scope"),
			Path:  stringArg(args, "path"),
		})
		return out, err
	case ToolSuggestTerms:
		_, out, err := s.mcpSuggestHandler(ctx, nil, SuggestInput{Name: stringArg(args, "name")})
		return out, err
	case ToolSearchTerms:
		_, out, err := s.mcpSearchHandler(ctx, nil, SearchInput{
			Query: stringArg(args, "query"),
			Limit: intArg(args, "limit"),
		})
		return out, err
	case ToolIndexStatus:
		_, out, err := s.mcpIndexStatusHandler(ctx, nil, IndexStatusInput{})
		return out, err
	case ToolRebuildIndex:
		_, out, err := s.mcpRebuildHandler(ctx, nil, RebuildInput{})
		return out, err
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, toolDef(ToolResolveTerm), s.mcpResolveHandler)
	mcp.AddTool(s.mcp, toolDef(ToolSuggestTerms), s.mcpSuggestHandler)
	mcp.AddTool(s.mcp, toolDef(ToolSearchTerms), s.mcpSearchHandler)
	mcp.AddTool(s.mcp, toolDef(ToolIndexStatus), s.mcpIndexStatusHandler)
	mcp.AddTool(s.mcp, toolDef(ToolRebuildIndex), s.mcpRebuildHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", len(toolInfos)))
}

func toolDef(name string) *mcp.Tool {
	for _, t := range toolInfos {
		if t.Name == name {
			return &mcp.Tool{Name: t.Name, Description: t.Description}
		}
	}
	panic("mcp: no description for tool " + name)
}

// mcpResolveHandler is the MCP SDK handler for the resolve_term tool.
func (s *Server) mcpResolveHandler(_ context.Context, _ *mcp.CallToolRequest, input ResolveInput) (
	*mcp.CallToolResult,
	ResolveOutput,
	error,
) {
	requestID := generateRequestID()
	snap := s.resolver.Snapshot()

	res, err := s.resolver.ResolveAt(snap, input.Ref, input.Scope, input.Path)
	if err != nil {
		s.logger.Debug("resolve_term rejected",
			slog.String("request_id", requestID),
			slog.String("ref", input.Ref),
			slog.String("error", err.Error()))
		return nil, ResolveOutput{}, MapError(err)
	}

	s.logger.Debug("resolve_term",
		slog.String("request_id", requestID),
		slog.String("ref", input.Ref),
		slog.Bool("exact", res.Exact),
		slog.Int("definitions", len(res.Definitions)),
		slog.Uint64("version", snap.Version))

	out := ResolveOutput{
		Ref:         input.Ref,
		Exact:       res.Exact,
		Definitions: res.Definitions,
		Suggestions: res.Suggestions,
		Version:     snap.Version,
	}
	return textResult(FormatResolution(input.Ref, res)), out, nil
}

// mcpSuggestHandler is the MCP SDK handler for the suggest_terms tool.
func (s *Server) mcpSuggestHandler(_ context.Context, _ *mcp.CallToolRequest, input SuggestInput) (
	*mcp.CallToolResult,
	SuggestOutput,
	error,
) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, SuggestOutput{}, NewInvalidParamsError("name parameter is required")
	}
	out := SuggestOutput{
		Name:        name,
		Suggestions: s.resolver.ApproximateMatches(name),
	}
	return textResult(FormatSuggestions(name, out.Suggestions)), out, nil
}

// mcpSearchHandler is the MCP SDK handler for the search_terms tool.
func (s *Server) mcpSearchHandler(_ context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query parameter is required")
	}
	limit := clampLimit(input.Limit, DefaultSearchLimit, maxSearchLimit)

	terms := s.coordinator.Snapshot().Search(query)
	total := len(terms)
	if total > limit {
		terms = terms[:limit]
	}
	if terms == nil {
		terms = []*document.Term{}
	}

	out := SearchOutput{Query: query, Terms: terms, Total: total}
	return textResult(FormatTerms(query, terms, total)), out, nil
}

// mcpIndexStatusHandler is the MCP SDK handler for the index_status tool.
func (s *Server) mcpIndexStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	snap := s.coordinator.Snapshot()
	out := IndexStatusOutput{
		RootPath: s.rootPath,
		Stats:    snap.Stats(),
		Scopes:   snap.Scopes,
	}
	if out.Scopes == nil {
		out.Scopes = []string{}
	}
	if snap.BuiltAt > 0 {
		out.LastIndexed = time.UnixMilli(snap.BuiltAt).UTC().Format(time.RFC3339)
	}

	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()
	if metrics != nil {
		out.Resolve = resolveActivity(metrics.Snapshot())
	}
	return textResult(FormatStatus(out)), out, nil
}

// mcpRebuildHandler is the MCP SDK handler for the rebuild_index tool.
func (s *Server) mcpRebuildHandler(ctx context.Context, _ *mcp.CallToolRequest, _ RebuildInput) (
	*mcp.CallToolResult,
	RebuildOutput,
	error,
) {
	start := time.Now()
	snap, err := s.coordinator.Rebuild(ctx)
	if err != nil {
		s.logger.Warn("rebuild_index failed", slog.String("error", err.Error()))
		return nil, RebuildOutput{}, MapError(err)
	}
	elapsed := time.Since(start)
	s.logger.Info("index rebuilt over MCP",
		slog.Int("documents", snap.Documents),
		slog.Duration("duration", elapsed))
	out := RebuildOutput{Stats: snap.Stats(), DurationMs: elapsed.Milliseconds()}
	return textResult(FormatRebuild(out)), out, nil
}

func resolveActivity(snap *telemetry.ResolveSnapshot) *ResolveActivity {
	activity := &ResolveActivity{
		Total:        snap.Total,
		MissRate:     snap.MissRate(),
		TopNames:     make([]string, 0, len(snap.TopNames)),
		RecentMisses: snap.RecentMisses,
	}
	for _, nc := range snap.TopNames {
		activity.TopNames = append(activity.TopNames, nc.Name)
	}
	if activity.RecentMisses == nil {
		activity.RecentMisses = []string{}
	}
	return activity
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// Serve starts the MCP server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
