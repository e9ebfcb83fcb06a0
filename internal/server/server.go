// Package server is the gateway's HTTP surface: the MCP transports
// (single-shot POST /mcp and streaming GET+POST /sse), the operational and
// admin endpoints, and the unauthenticated discovery documents. Every route
// passes through correlation-id, CORS, and access-log middleware.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lanonasis-gateway/internal/cache"
	"lanonasis-gateway/internal/config"
	"lanonasis-gateway/internal/health"
	"lanonasis-gateway/internal/metrics"
	"lanonasis-gateway/internal/registry"
	"lanonasis-gateway/internal/resilience"
	"lanonasis-gateway/pkg/logging"
)

const (
	serverName        = "lanonasis-gateway"
	serverDisplayName = "Lanonasis MCP Gateway"
	serverDescription = "MCP gateway fronting the Lanonasis memory platform: " +
		"memory management, API keys, projects, and intelligence tools."

	// readHeaderTimeout guards against slow header writers. There is no
	// write timeout: streaming sessions hold the response open.
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second

	// keepAliveInterval is the SSE ping period that keeps idle streaming
	// sessions alive through proxies.
	keepAliveInterval = 30 * time.Second
)

// NewMCPCore assembles the MCP server core shared by every transport and
// attaches the full catalog to it. Handlers panicking inside a tool call are
// recovered by the core instead of tearing the transport down.
func NewMCPCore(reg *registry.Registry, version string) *mcpserver.MCPServer {
	core := mcpserver.NewMCPServer(
		serverName,
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithRecovery(),
	)
	reg.Attach(core)
	return core
}

// Options carries the collaborators the HTTP surface serves.
type Options struct {
	Config    *config.Config
	Registry  *registry.Registry
	Checker   *health.Checker
	Collector *metrics.Collector
	Caches    *cache.Manager
	Breakers  *resilience.Registry
	Version   string
}

// Server owns the HTTP listener and the two HTTP-carried MCP transports.
type Server struct {
	cfg       *config.Config
	reg       *registry.Registry
	checker   *health.Checker
	collector *metrics.Collector
	caches    *cache.Manager
	breakers  *resilience.Registry
	version   string

	streamable *mcpserver.StreamableHTTPServer
	sse        *mcpserver.SSEServer

	router         *mux.Router
	httpServer     *http.Server
	registerClient *http.Client
}

// New builds the HTTP surface over an assembled MCP core.
func New(core *mcpserver.MCPServer, opts Options) *Server {
	s := &Server{
		cfg:       opts.Config,
		reg:       opts.Registry,
		checker:   opts.Checker,
		collector: opts.Collector,
		caches:    opts.Caches,
		breakers:  opts.Breakers,
		version:   opts.Version,

		registerClient: &http.Client{Timeout: registerTimeout},
	}

	// Single-shot transport: one envelope in, one out, no session handshake.
	s.streamable = mcpserver.NewStreamableHTTPServer(core,
		mcpserver.WithStateLess(true),
	)

	// Streaming transport: the endpoint event announces POST /sse?sessionId=…
	// as the message sink, so both directions share one path.
	s.sse = mcpserver.NewSSEServer(core,
		mcpserver.WithBaseURL(opts.Config.ServerURL),
		mcpserver.WithSSEEndpoint("/sse"),
		mcpserver.WithMessageEndpoint("/sse"),
		mcpserver.WithKeepAlive(true),
		mcpserver.WithKeepAliveInterval(keepAliveInterval),
	)

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// buildRouter wires every route. Method matching is strict; an unmatched
// method on a known path answers 405.
func (s *Server) buildRouter() *mux.Router {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(s.collector)

	r := mux.NewRouter()

	r.HandleFunc("/", s.handleLanding).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/full", s.handleHealthFull).Methods(http.MethodGet)
	r.HandleFunc("/health/metrics", s.handleMetricsJSON).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/admin/cache/clear", s.handleCacheClear).Methods(http.MethodPost)
	r.HandleFunc("/admin/circuit-breaker/reset", s.handleBreakerReset).Methods(http.MethodPost)

	r.HandleFunc("/server-info", s.handleServerCard).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/mcp.json", s.handleServerCard).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/mcp-config", s.handleMCPConfig).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/oauth-protected-resource", s.handleProtectedResource).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/oauth-authorization-server", s.handleAuthorizationServer).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)

	r.Handle("/mcp", s.streamable).Methods(http.MethodPost)
	r.Handle("/sse", s.sse.SSEHandler()).Methods(http.MethodGet)
	r.Handle("/sse", s.requireSessionID(s.sse.MessageHandler())).Methods(http.MethodPost)

	return r
}

// Handler returns the router wrapped in the middleware chain. The chain sits
// outside the router so unmatched routes and preflights still get correlation
// ids and CORS headers.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = accessLog(h)
	h = cors(h)
	h = withRequestID(h)
	return h
}

// Listen binds the configured port. Kept separate from Serve so the caller
// can distinguish a bind failure from a runtime one.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", s.httpServer.Addr, err)
	}
	return ln, nil
}

// Serve accepts connections until Shutdown. A closed-server error is
// swallowed; anything else is a runtime failure.
func (s *Server) Serve(ln net.Listener) error {
	logging.Info("Server", "HTTP listener ready on %s", ln.Addr())
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires, then severs whatever
// is still open. Long-lived streaming sessions never drain on their own, so
// hitting the deadline with sessions open is the expected path.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.sse.Shutdown(ctx); err != nil {
		logging.Warn("Server", "SSE shutdown: %v", err)
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.httpServer.Close()
		return err
	}
	return nil
}
