package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Aman-CERP/termwiki/internal/document"
	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/index"
	"github.com/Aman-CERP/termwiki/internal/resolve"
	"github.com/Aman-CERP/termwiki/internal/telemetry"
)

// ResolveResponse wraps a resolution with the reference that produced it.
type ResolveResponse struct {
	Ref string `json:"ref"`
	resolve.Result
	Version uint64 `json:"version"`
}

// SuggestResponse lists approximate matches for a name.
type SuggestResponse struct {
	Name        string               `json:"name"`
	Suggestions []resolve.Suggestion `json:"suggestions"`
}

// SearchResponse lists terms whose names contain the query.
type SearchResponse struct {
	Query string           `json:"query"`
	Terms []*document.Term `json:"terms"`
}

// FileResponse carries the raw text of one document.
type FileResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// StatusResponse summarizes the index and resolve telemetry.
type StatusResponse struct {
	Index   index.Stats                `json:"index"`
	Scopes  []string                   `json:"scopes"`
	Resolve *telemetry.ResolveSnapshot `json:"resolve,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.deps.Coordinator.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": snap.Version,
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Coordinator.Snapshot())
}

func (s *Server) handleResolve(c *gin.Context) {
	ref := c.Query("ref")
	snap := s.deps.Resolver.Snapshot()
	res, err := s.deps.Resolver.ResolveAt(snap, ref, c.Query("scope"), c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResolveResponse{Ref: ref, Result: res, Version: snap.Version})
}

func (s *Server) handleSuggest(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		writeError(c, wikierrors.New(wikierrors.ErrCodeQueryEmpty, "name is required", nil))
		return
	}
	c.JSON(http.StatusOK, SuggestResponse{
		Name:        name,
		Suggestions: s.deps.Resolver.ApproximateMatches(name),
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, wikierrors.New(wikierrors.ErrCodeQueryEmpty, "q is required", nil))
		return
	}
	terms := s.deps.Coordinator.Snapshot().Search(q)
	if terms == nil {
		terms = []*document.Term{}
	}
	c.JSON(http.StatusOK, SearchResponse{Query: q, Terms: terms})
}

func (s *Server) handleFile(c *gin.Context) {
	path := c.Query("path")
	content, err := s.deps.Corpus.ReadDocument(c.Request.Context(), path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, FileResponse{Path: path, Content: content})
}

func (s *Server) handleFiles(c *gin.Context) {
	tree, err := s.deps.Corpus.Tree(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (s *Server) handleStatus(c *gin.Context) {
	snap := s.deps.Coordinator.Snapshot()
	resp := StatusResponse{Index: snap.Stats(), Scopes: snap.Scopes}
	if s.deps.Metrics != nil {
		resp.Resolve = s.deps.Metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRebuild(c *gin.Context) {
	snap, err := s.deps.Coordinator.Rebuild(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.Stats())
}
