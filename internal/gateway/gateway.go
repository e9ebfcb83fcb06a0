// Package gateway assembles the component graph and owns the process
// lifecycle: configuration warnings, catalog registration, transport startup,
// the upstream warmup loop, and graceful shutdown.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"lanonasis-gateway/internal/cache"
	"lanonasis-gateway/internal/config"
	"lanonasis-gateway/internal/health"
	"lanonasis-gateway/internal/metrics"
	"lanonasis-gateway/internal/registry"
	"lanonasis-gateway/internal/resilience"
	"lanonasis-gateway/internal/server"
	"lanonasis-gateway/internal/tools"
	"lanonasis-gateway/internal/upstream"
	"lanonasis-gateway/pkg/logging"
)

// shutdownGrace bounds how long in-flight requests may drain once a stop is
// requested. Streaming sessions never drain on their own, so shutdown
// routinely runs the full grace period while sessions are open.
const shutdownGrace = 10 * time.Second

// Gateway owns every long-lived component. New wires the graph; Run starts
// the configured transport and blocks until the context ends or the
// transport fails.
type Gateway struct {
	cfg     config.Config
	version string

	breakers *resilience.Registry
	caches   *cache.Manager
	recorder *metrics.Recorder
	checker  *health.Checker
	registry *registry.Registry
	core     *mcpserver.MCPServer
	http     *server.Server
}

// New builds the component graph for the configured mode. The HTTP surface
// is only assembled in http mode; stdio mode serves the same MCP core over
// the process pipes.
func New(cfg config.Config, version string) (*Gateway, error) {
	for _, w := range cfg.Warnings {
		logging.Warn("Gateway", "%s", w)
	}

	g := &Gateway{
		cfg:      cfg,
		version:  version,
		breakers: resilience.NewRegistry(),
		caches:   cache.NewManager(),
		recorder: metrics.NewRecorder(version),
	}

	api := upstream.NewAPIClient(&g.cfg, g.breakers, version)
	functions := upstream.NewFunctionsClient(&g.cfg, g.breakers, version)
	g.checker = health.NewChecker(api, functions)

	// Touch both breakers so their state is reported from the first scrape
	// rather than from the first upstream call.
	g.breakers.Get(resilience.BreakerAPI)
	g.breakers.Get(resilience.BreakerEdgeFunctions)

	g.registry = registry.NewRegistry(g.recorder)
	deps := tools.Deps{
		API:       api,
		Functions: functions,
		Caches:    g.caches,
		Checker:   g.checker,
		Config:    &g.cfg,
		Version:   version,
	}
	if err := tools.Register(g.registry, deps); err != nil {
		return nil, fmt.Errorf("registering catalog: %w", err)
	}
	g.core = server.NewMCPCore(g.registry, version)

	if cfg.Mode == config.ModeHTTP {
		collector := metrics.NewCollector(g.recorder, g.breakers, g.caches)
		g.http = server.New(g.core, server.Options{
			Config:    &g.cfg,
			Registry:  g.registry,
			Checker:   g.checker,
			Collector: collector,
			Caches:    g.caches,
			Breakers:  g.breakers,
			Version:   version,
		})
	}

	toolCount, promptCount, resourceCount := g.registry.Counts()
	logging.Info("Gateway", "catalog ready: %d tools, %d prompts, %d resources",
		toolCount, promptCount, resourceCount)
	return g, nil
}

// Run serves the configured transport until ctx is cancelled or the
// transport fails. The cache janitors are stopped and the shutdown summary
// is logged on the way out regardless of how the run ended.
func (g *Gateway) Run(ctx context.Context) error {
	logging.Info("Gateway", "lanonasis-gateway %s starting in %s mode", g.version, g.cfg.Mode)
	logging.Info("Gateway", "upstreams: api=%s functions=%s", g.cfg.APIBaseURL, g.cfg.FunctionsBaseURL)

	var err error
	switch g.cfg.Mode {
	case config.ModeStdio:
		err = g.runStdio(ctx)
	default:
		err = g.runHTTP(ctx)
	}

	g.caches.Stop()
	g.logSummary()
	return err
}

// runHTTP binds the listener, then serves until the context ends. Shutdown
// drains in-flight requests for up to shutdownGrace before severing the
// rest.
func (g *Gateway) runHTTP(ctx context.Context) error {
	ln, err := g.http.Listen()
	if err != nil {
		return err
	}
	logging.Info("Gateway", "MCP transports: POST %s/mcp (single-shot), GET %s/sse (streaming)",
		g.cfg.ServerURL, g.cfg.ServerURL)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return g.http.Serve(ln)
	})
	eg.Go(func() error {
		g.checker.Warmup(egCtx, g.cfg.WarmupInterval)
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := g.http.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Gateway", "severed connections after %s grace: %v", shutdownGrace, err)
		}
		return nil
	})
	return eg.Wait()
}

// runStdio ties one MCP session to the process pipes. The session ends when
// the context is cancelled or the client closes stdin; either way the warmup
// loop stops alongside it.
func (g *Gateway) runStdio(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer cancel()
		logging.Info("Gateway", "stdio session bound to stdin/stdout")
		if err := mcpserver.NewStdioServer(g.core).Listen(egCtx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio session: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		g.checker.Warmup(egCtx, g.cfg.WarmupInterval)
		return nil
	})
	return eg.Wait()
}

// logSummary emits the end-of-life report: uptime, request totals, and the
// state the breakers ended in.
func (g *Gateway) logSummary() {
	stats := g.recorder.RequestStats()
	logging.Info("Gateway", "shutdown complete: uptime=%s requests=%d errors=%d breakers[%s]",
		g.recorder.Uptime().Round(time.Second), stats.Total, stats.Errors,
		breakerStateLine(g.breakers.Snapshots()))
}

// breakerStateLine folds breaker snapshots into a fixed-order state count
// line, e.g. "closed=2 half_open=0 open=0".
func breakerStateLine(snaps []resilience.Snapshot) string {
	counts := make(map[string]int, 3)
	for _, s := range snaps {
		counts[s.State]++
	}
	parts := make([]string, 0, 3)
	for _, state := range []string{"CLOSED", "HALF_OPEN", "OPEN"} {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(state), counts[state]))
	}
	return strings.Join(parts, " ")
}
