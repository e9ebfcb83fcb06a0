package server

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/requestid"
	"lanonasis-gateway/pkg/logging"
)

// withRequestID echoes the caller's X-Request-Id or mints a v4 UUID, stamps
// it on the response, and threads it through the request context.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := strings.TrimSpace(r.Header.Get(requestid.Header)); id != "" {
			ctx = requestid.With(ctx, id)
		}
		ctx, id := requestid.Ensure(ctx)
		w.Header().Set(requestid.Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

const (
	corsAllowMethods  = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, Accept, Authorization, X-API-Key, X-Request-Id, Mcp-Session-Id, Last-Event-ID"
	corsExposeHeaders = "X-Request-Id, Mcp-Session-Id"
)

// cors answers preflights and marks every response for browser-based MCP
// clients. Discovery documents must stay reachable from any origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog emits one record per request. Liveness and scrape traffic logs
// at debug so pollers do not drown the stream.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		durationMs := float64(time.Since(started)) / float64(time.Millisecond)
		logFn := logging.Info
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			logFn = logging.Debug
		}
		logFn("HTTP", "%s %s %d %.1fms requestId=%s",
			r.Method, r.URL.Path, sw.Status(), durationMs, requestid.From(r.Context()))
	})
}

// statusWriter records the response code. Flush passes through so streaming
// handlers keep working behind the wrapper.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Status returns the recorded code, defaulting to 200 for handlers that
// never call WriteHeader.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Streaming session ids are server-minted UUIDs; anything outside this shape
// is rejected before the session map is consulted.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,128}$`)

// requireSessionID validates the sessionId query parameter on message
// delivery before handing the request to the transport.
func (s *Server) requireSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("sessionId")
		if !sessionIDPattern.MatchString(id) {
			s.writeError(w, r, gwerrors.Validation("invalid or missing sessionId"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
