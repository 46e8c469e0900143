// Package api serves the index over HTTP.
//
// Routes:
//
//	GET  /api/index               current snapshot
//	GET  /api/resolve?ref=&scope=&path=
//	GET  /api/suggest?name=
//	GET  /api/search?q=
//	GET  /api/file?path=          raw document text
//	GET  /api/files               document tree
//	GET  /api/status              snapshot stats and resolve telemetry
//	POST /api/rebuild
//	GET  /ws                      push notifications
//	GET  /metrics                 Prometheus
//	GET  /healthz
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aman-CERP/termwiki/internal/corpus"
	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/index"
	"github.com/Aman-CERP/termwiki/internal/push"
	"github.com/Aman-CERP/termwiki/internal/resolve"
	"github.com/Aman-CERP/termwiki/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// Deps are the components the handlers read from. Hub, Gatherer and
// Metrics are optional; their routes are left out when nil.
type Deps struct {
	Coordinator *index.Coordinator
	Resolver    *resolve.Resolver
	Corpus      *corpus.Dir
	Hub         *push.Hub
	Gatherer    prometheus.Gatherer
	Metrics     *telemetry.ResolveMetrics
}

// Server is the HTTP front end.
type Server struct {
	deps   Deps
	engine *gin.Engine
	srv    *http.Server
}

// New builds the router. Call ListenAndServe to start it.
func New(addr string, deps Deps) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{deps: deps, engine: engine}
	s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.GET("/index", s.handleIndex)
		api.GET("/resolve", s.handleResolve)
		api.GET("/suggest", s.handleSuggest)
		api.GET("/search", s.handleSearch)
		api.GET("/file", s.handleFile)
		api.GET("/files", s.handleFiles)
		api.GET("/status", s.handleStatus)
		api.POST("/rebuild", s.handleRebuild)
	}

	if s.deps.Hub != nil {
		s.engine.GET("/ws", gin.WrapH(s.deps.Hub))
	}
	if s.deps.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx ends, then shuts down gracefully. A busy
// address is reported as ERR_301_ADDR_IN_USE.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return wikierrors.New(wikierrors.ErrCodeAddrInUse, "address already in use", err).
				WithDetail("addr", s.srv.Addr).
				WithSuggestion("pick another address with --addr or stop the other server")
		}
		return wikierrors.New(wikierrors.ErrCodeAddrInUse, "cannot listen", err).WithDetail("addr", s.srv.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	slog.Info("http server listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("http server stopped")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}
