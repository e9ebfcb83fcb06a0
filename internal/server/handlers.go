package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/health"
	"lanonasis-gateway/internal/metrics"
	"lanonasis-gateway/internal/requestid"
	"lanonasis-gateway/pkg/logging"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("HTTP", err, "Encoding response body")
	}
}

// writeError renders a normalized error payload with the request's
// correlation id attached.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, gwErr *gwerrors.Error) {
	gwErr = gwErr.WithRequestID(requestid.From(r.Context()))
	s.writeJSON(w, gwErr.HTTPStatus(), gwErr.Payload())
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": serverDisplayName,
		"version": s.version,
		"status":  "operational",
		"transports": map[string]string{
			"http": "/mcp",
			"sse":  "/sse",
		},
		"endpoints": map[string]string{
			"health":      "/health",
			"healthFull":  "/health/full",
			"metrics":     "/metrics",
			"metricsJson": "/health/metrics",
			"serverInfo":  "/server-info",
			"discovery":   "/.well-known/mcp.json",
		},
	})
}

// handleHealth is the fast liveness probe. It reports healthy whenever the
// process can answer; upstream state belongs to /health/full.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    health.StatusHealthy,
		"server":    serverName,
		"version":   s.version,
		"requestId": requestid.From(r.Context()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealthFull probes both upstreams. Degraded still answers 200 so
// load balancers keep routing; only unhealthy turns the endpoint away.
func (s *Server) handleHealthFull(w http.ResponseWriter, r *http.Request) {
	report := s.checker.Check(r.Context())
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]interface{}{
		"status":    report.Status,
		"version":   s.version,
		"requestId": requestid.From(r.Context()),
		"upstreams": report.Upstreams,
		"checkedAt": report.CheckedAt,
	})
}

// metricsDocument mirrors the Prometheus exposition as JSON with the
// correlation id echoed.
type metricsDocument struct {
	RequestID string `json:"requestId"`
	metrics.Snapshot
}

func (s *Server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, metricsDocument{
		RequestID: requestid.From(r.Context()),
		Snapshot:  s.collector.Snapshot(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Cache string `json:"cache"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, gwerrors.Validation("request body must be JSON"))
		return
	}

	cleared, err := s.caches.Clear(body.Cache)
	if err != nil {
		s.writeError(w, r, gwerrors.Validation(err.Error()))
		return
	}
	name := body.Cache
	if name == "" {
		name = "all"
	}
	logging.Info("Admin", "Cleared cache %s: %d entries dropped", name, cleared)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"cache":     name,
		"cleared":   cleared,
		"requestId": requestid.From(r.Context()),
	})
}

func (s *Server) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	reset := s.breakers.ResetAll()
	logging.Info("Admin", "Reset %d circuit breakers", reset)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"reset":     reset,
		"requestId": requestid.From(r.Context()),
	})
}
