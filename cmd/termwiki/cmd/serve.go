package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/termwiki/internal/api"
	"github.com/Aman-CERP/termwiki/internal/config"
	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/lock"
	"github.com/Aman-CERP/termwiki/internal/logging"
	"github.com/Aman-CERP/termwiki/internal/mcp"
	"github.com/Aman-CERP/termwiki/internal/push"
	"github.com/Aman-CERP/termwiki/internal/telemetry"
	"github.com/Aman-CERP/termwiki/internal/watcher"
)

type serveOptions struct {
	addr    string
	mcp     bool
	noWatch bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live index over HTTP or MCP",
		Long: `Index the docs directory, then keep the index current as documents change
and serve it.

With the default http transport the index is served as a JSON API with a
websocket push channel at /ws and Prometheus metrics at /metrics.

With --mcp (or server.transport: stdio) the index is exposed to an AI
assistant over the Model Context Protocol on stdin/stdout. Nothing else is
written to stdout in that mode; logs go to ~/.termwiki/logs/server.log.`,
		Example: `  # HTTP API on the configured address
  termwiki serve

  # Different port, no file watching
  termwiki serve --addr 127.0.0.1:8080 --no-watch

  # MCP server for Claude Desktop, Cursor and similar clients
  termwiki serve --mcp`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.mcp, "mcp", false, "Serve MCP over stdio instead of HTTP")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Do not watch the docs directory for changes")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	transport := p.cfg.Server.Transport
	if opts.mcp {
		transport = config.TransportStdio
	}
	if transport == config.TransportStdio {
		// stdout carries JSON-RPC from here on.
		cleanup, err := logging.SetupMCPMode(p.cfg.Server.LogLevel)
		if err != nil {
			return err
		}
		defer cleanup()
	} else if !debugMode {
		logging.SetupStderr(p.cfg.Server.LogLevel)
	}

	lk := lock.New(p.corpus.Root())
	if err := lk.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lk.Release() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	resolveStats := telemetry.NewResolveMetrics(telemetry.DefaultResolveMetricsConfig())
	metrics := telemetry.NewMetrics(registry, resolveStats)

	var eng *engine
	hub := push.NewHub(push.WithRefresh(func(ctx context.Context) error {
		_, err := eng.coordinator.Rebuild(ctx)
		return err
	}))
	defer hub.Close()

	eng = p.newEngine(engineOptions{observer: metrics, notifier: hub, recorder: metrics})
	snap, err := eng.coordinator.Rebuild(ctx)
	if err != nil {
		return err
	}
	slog.Info("index ready",
		slog.String("docs", p.corpus.Root()),
		slog.Int("documents", snap.Documents),
		slog.String("transport", transport))

	// Whichever server stops first takes the watcher down with it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if p.cfg.Watch.IsEnabled() && !opts.noWatch {
		w, err := watcher.NewHybridWatcher(watcher.Options{
			DebounceWindow: p.cfg.Watch.DebounceDuration(),
			PollInterval:   p.cfg.Watch.PollIntervalDuration(),
			IgnorePatterns: p.corpus.Excludes(),
			ForcePolling:   p.cfg.Watch.ForcePolling,
		})
		if err != nil {
			return wikierrors.InternalError("cannot create file watcher", err)
		}
		g.Go(func() error { return watchDocs(ctx, w, eng, p.corpus.Root()) })
	}

	switch transport {
	case config.TransportStdio:
		srv, err := mcp.NewServer(eng.coordinator, eng.resolver, p.corpus.Root())
		if err != nil {
			return err
		}
		srv.SetMetrics(resolveStats)
		g.Go(func() error {
			defer cancel()
			err := srv.Serve(ctx, transport)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	default:
		addr := p.cfg.Server.Addr
		if opts.addr != "" {
			addr = opts.addr
		}
		srv := api.New(addr, api.Deps{
			Coordinator: eng.coordinator,
			Resolver:    eng.resolver,
			Corpus:      p.corpus,
			Hub:         hub,
			Gatherer:    registry,
			Metrics:     resolveStats,
		})
		g.Go(func() error {
			defer cancel()
			return srv.ListenAndServe(ctx)
		})
	}

	return g.Wait()
}

// watchDocs feeds watcher batches to the coordinator until ctx ends.
// Watcher failures are logged; the server keeps serving the last index.
func watchDocs(ctx context.Context, w *watcher.HybridWatcher, eng *engine, root string) error {
	defer func() { _ = w.Stop() }()

	go func() {
		if err := w.Start(ctx, root); err != nil && ctx.Err() == nil {
			slog.Error("file watcher stopped", slog.String("error", err.Error()))
		}
	}()

	errs := w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			_ = eng.coordinator.HandleEvents(ctx, batch)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}
