package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanonasis-gateway/internal/cache"
	"lanonasis-gateway/internal/config"
	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/health"
	"lanonasis-gateway/internal/metrics"
	"lanonasis-gateway/internal/registry"
	"lanonasis-gateway/internal/requestid"
	"lanonasis-gateway/internal/resilience"
	"lanonasis-gateway/internal/tools"
	"lanonasis-gateway/internal/upstream"
)

// upstreamRecorder doubles both upstreams and records every call it serves.
type upstreamRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (rec *upstreamRecorder) respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.calls = append(rec.calls, r.Method+" "+r.URL.Path)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (rec *upstreamRecorder) count(call string) int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	n := 0
	for _, c := range rec.calls {
		if c == call {
			n++
		}
	}
	return n
}

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}
}

// newGatewayServer assembles the full stack behind the HTTP surface with
// both upstreams pointed at the given double.
func newGatewayServer(t *testing.T, upstreamHandler http.Handler, mutate ...func(*config.Config)) *Server {
	t.Helper()

	up := httptest.NewServer(upstreamHandler)
	t.Cleanup(up.Close)

	cfg := &config.Config{
		Mode:             config.ModeHTTP,
		Port:             8080,
		LogLevel:         "error",
		LogFormat:        "machine",
		APIBaseURL:       up.URL,
		FunctionsBaseURL: up.URL,
		RequestTimeout:   2 * time.Second,
		MaxRetries:       0,
		RetryBaseDelay:   time.Millisecond,
		WarmupInterval:   time.Minute,
		AuthServerURL:    "https://auth.lanonasis.test",
		ResourceURL:      "https://gateway.lanonasis.test",
		ServerURL:        "https://gateway.lanonasis.test",
	}
	for _, m := range mutate {
		m(cfg)
	}

	breakers := resilience.NewRegistry()
	api := upstream.NewAPIClient(cfg, breakers, "1.0.0-test")
	fns := upstream.NewFunctionsClient(cfg, breakers, "1.0.0-test")
	caches := cache.NewManager()
	t.Cleanup(caches.Stop)

	recorder := metrics.NewRecorder("1.0.0-test")
	reg := registry.NewRegistry(recorder)
	checker := health.NewChecker(api, fns)
	require.NoError(t, tools.Register(reg, tools.Deps{
		API:       api,
		Functions: fns,
		Caches:    caches,
		Checker:   checker,
		Config:    cfg,
		Version:   "1.0.0-test",
	}))

	core := NewMCPCore(reg, "1.0.0-test")
	return New(core, Options{
		Config:    cfg,
		Registry:  reg,
		Checker:   checker,
		Collector: metrics.NewCollector(recorder, breakers, caches),
		Caches:    caches,
		Breakers:  breakers,
		Version:   "1.0.0-test",
	})
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), "body: %s", w.Body.String())
	return doc
}

func toolCallEnvelope(t *testing.T, tool string, args map[string]interface{}) io.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      tool,
			"arguments": args,
		},
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

var mcpHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json, text/event-stream",
}

// decodeRPC reads one JSON-RPC response, whether it arrived as a plain JSON
// body or framed as a single SSE message.
func decodeRPC(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "event:") || strings.HasPrefix(text, "data:") {
		for _, line := range strings.Split(text, "\n") {
			if strings.HasPrefix(line, "data:") {
				text = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				break
			}
		}
	}
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &doc), "body: %s", raw)
	return doc
}

// rpcResultText pulls the first text content block and the error flag out of
// a tools/call response.
func rpcResultText(t *testing.T, doc map[string]interface{}) (string, bool) {
	t.Helper()
	result, ok := doc["result"].(map[string]interface{})
	require.True(t, ok, "response has no result: %v", doc)
	content, ok := result["content"].([]interface{})
	require.True(t, ok, "result has no content: %v", result)
	require.NotEmpty(t, content)
	first, ok := content[0].(map[string]interface{})
	require.True(t, ok)
	text, _ := first["text"].(string)
	isError, _ := result["isError"].(bool)
	return text, isError
}

var uuidShape = regexp.MustCompile(`^[0-9a-f-]{36}$`)

func TestSingleShotToolCallMintsRequestID(t *testing.T) {
	rec := &upstreamRecorder{}
	s := newGatewayServer(t, rec.respond(http.StatusOK, `{}`))

	w := do(t, s, http.MethodPost, "/mcp",
		toolCallEnvelope(t, "get_health_status", map[string]interface{}{}), mcpHeaders)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Regexp(t, uuidShape, w.Header().Get(requestid.Header))

	text, isError := rpcResultText(t, decodeRPC(t, w.Body.Bytes()))
	assert.False(t, isError, text)
	assert.Contains(t, text, `"status"`)
}

func TestSingleShotValidationFailureSkipsUpstream(t *testing.T) {
	rec := &upstreamRecorder{}
	s := newGatewayServer(t, rec.respond(http.StatusOK, `{}`))

	w := do(t, s, http.MethodPost, "/mcp",
		toolCallEnvelope(t, "list_memories", map[string]interface{}{"limit": 1000}), mcpHeaders)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	text, isError := rpcResultText(t, decodeRPC(t, w.Body.Bytes()))
	assert.True(t, isError)
	assert.Contains(t, text, string(gwerrors.KindValidation))
	assert.Contains(t, text, "limit")
	assert.Equal(t, 0, rec.count("GET /api/v1/memory"))
}

func TestRequestIDEchoedVerbatim(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	w := do(t, s, http.MethodGet, "/health", nil, map[string]string{requestid.Header: "trace-42-abc"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-42-abc", w.Header().Get(requestid.Header))
	doc := decodeBody(t, w)
	assert.Equal(t, "trace-42-abc", doc["requestId"])
	assert.Equal(t, health.StatusHealthy, doc["status"])
	assert.Equal(t, "1.0.0-test", doc["version"])
}

func TestUnmatchedRouteStillGetsRequestID(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	w := do(t, s, http.MethodGet, "/definitely-not-a-route", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Regexp(t, uuidShape, w.Header().Get(requestid.Header))
}

func TestFullHealthReflectsUpstreamState(t *testing.T) {
	t.Run("healthy upstreams", func(t *testing.T) {
		s := newGatewayServer(t, okHandler())

		w := do(t, s, http.MethodGet, "/health/full", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		doc := decodeBody(t, w)
		assert.Equal(t, health.StatusHealthy, doc["status"])
		assert.Len(t, doc["upstreams"], 2)
	})

	t.Run("unreachable upstreams", func(t *testing.T) {
		s := newGatewayServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		w := do(t, s, http.MethodGet, "/health/full", nil, nil)

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		doc := decodeBody(t, w)
		assert.Equal(t, health.StatusUnhealthy, doc["status"])
	})
}

func TestPrometheusExposition(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	w := do(t, s, http.MethodGet, "/metrics", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	body := w.Body.String()
	assert.Contains(t, body, `lanonasis_gateway_info{version="1.0.0-test"} 1`)
	assert.Contains(t, body, "lanonasis_gateway_uptime_seconds")
	assert.Contains(t, body, `lanonasis_gateway_memory_bytes{type="heap_used"}`)
}

func TestMetricsJSONEchoesRequestID(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	w := do(t, s, http.MethodGet, "/health/metrics", nil, map[string]string{requestid.Header: "metrics-probe-1"})

	require.Equal(t, http.StatusOK, w.Code)
	doc := decodeBody(t, w)
	assert.Equal(t, "metrics-probe-1", doc["requestId"])
	serverInfo, ok := doc["server"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "1.0.0-test", serverInfo["version"])
	assert.Contains(t, doc, "requests")
	assert.Contains(t, doc, "caches")
	assert.Contains(t, doc, "circuitBreakers")
}

func TestAdminCacheClear(t *testing.T) {
	s := newGatewayServer(t, okHandler())
	s.caches.MemoryList().Set(`memories:list:{"limit":10}`, cache.Payload{"n": 1})
	s.caches.Stats().Set("stats:memory", cache.Payload{"n": 2})

	w := do(t, s, http.MethodPost, "/admin/cache/clear", strings.NewReader(`{"cache":"memoryList"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decodeBody(t, w)
	assert.Equal(t, true, doc["success"])
	assert.Equal(t, "memoryList", doc["cache"])
	assert.Equal(t, float64(1), doc["cleared"])
	assert.Equal(t, 0, s.caches.MemoryList().Len())
	assert.Equal(t, 1, s.caches.Stats().Len())

	// No body means clear everything.
	w = do(t, s, http.MethodPost, "/admin/cache/clear", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "all", decodeBody(t, w)["cache"])
	assert.Equal(t, 0, s.caches.Stats().Len())

	w = do(t, s, http.MethodPost, "/admin/cache/clear", strings.NewReader(`{"cache":"bogus"}`), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var payload gwerrors.Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, string(gwerrors.KindValidation), payload.Error.Code)
}

func TestAdminBreakerReset(t *testing.T) {
	s := newGatewayServer(t, okHandler())
	s.breakers.Get(resilience.BreakerAPI)
	s.breakers.Get(resilience.BreakerEdgeFunctions)

	w := do(t, s, http.MethodPost, "/admin/circuit-breaker/reset", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	doc := decodeBody(t, w)
	assert.Equal(t, true, doc["success"])
	assert.Equal(t, float64(2), doc["reset"])
}

func TestDiscoveryDocumentsServeWithoutAuth(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	paths := []string{
		"/",
		"/server-info",
		"/.well-known/mcp.json",
		"/.well-known/mcp-config",
		"/.well-known/oauth-protected-resource",
		"/.well-known/oauth-authorization-server",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := do(t, s, http.MethodGet, path, nil, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			assert.NotEmpty(t, w.Header().Get(requestid.Header))
		})
	}
}

func TestServerCardCountsCatalog(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	w := do(t, s, http.MethodGet, "/.well-known/mcp.json", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	doc := decodeBody(t, w)

	caps, ok := doc["capabilities"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(28), caps["tools"])
	assert.Equal(t, float64(3), caps["prompts"])
	assert.Equal(t, float64(2), caps["resources"])

	risks, ok := doc["riskLevels"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), risks["critical"])

	transports, ok := doc["transports"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "https://gateway.lanonasis.test/mcp", transports["http"])
	assert.Equal(t, "https://gateway.lanonasis.test/sse", transports["sse"])

	auth, ok := doc["authentication"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "https://auth.lanonasis.test", auth["authorizationServer"])
}

func TestOAuthMetadataPointsAtAuthServer(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	w := do(t, s, http.MethodGet, "/.well-known/oauth-protected-resource", nil, nil)
	doc := decodeBody(t, w)
	assert.Equal(t, "https://gateway.lanonasis.test", doc["resource"])
	servers, ok := doc["authorization_servers"].([]interface{})
	require.True(t, ok)
	require.Len(t, servers, 1)
	assert.Equal(t, "https://auth.lanonasis.test", servers[0])

	w = do(t, s, http.MethodGet, "/.well-known/oauth-authorization-server", nil, nil)
	doc = decodeBody(t, w)
	assert.Equal(t, "https://auth.lanonasis.test/oauth/authorize", doc["authorization_endpoint"])
	assert.Equal(t, "https://auth.lanonasis.test/oauth/token", doc["token_endpoint"])
	assert.Equal(t, "https://gateway.lanonasis.test/register", doc["registration_endpoint"])
}

func TestRegisterPassThroughPreservesStatus(t *testing.T) {
	var forwardedPath, forwardedID string
	var forwardedBody []byte
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwardedPath = r.URL.Path
		forwardedBody, _ = io.ReadAll(r.Body)
		forwardedID = r.Header.Get(requestid.Header)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"client_id":"generated-123"}`)
	}))
	t.Cleanup(authServer.Close)

	s := newGatewayServer(t, okHandler(), func(cfg *config.Config) {
		cfg.AuthServerURL = authServer.URL
	})

	w := do(t, s, http.MethodPost, "/register",
		strings.NewReader(`{"client_name":"probe","redirect_uris":["https://client.test/cb"]}`), nil)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"client_id":"generated-123"}`, w.Body.String())
	assert.Equal(t, "/oauth/register", forwardedPath)
	assert.Contains(t, string(forwardedBody), "client_name")
	assert.NotEmpty(t, forwardedID)
}

func TestRegisterReportsUnreachableAuthServer(t *testing.T) {
	s := newGatewayServer(t, okHandler(), func(cfg *config.Config) {
		cfg.AuthServerURL = "http://127.0.0.1:1"
	})

	w := do(t, s, http.MethodPost, "/register", strings.NewReader(`{}`), nil)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var payload gwerrors.Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, string(gwerrors.KindUnavailable), payload.Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	w := do(t, s, http.MethodOptions, "/mcp", nil, map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), requestid.Header)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), requestid.Header)
}

func TestMessageDeliveryValidatesSessionID(t *testing.T) {
	s := newGatewayServer(t, okHandler())

	cases := []struct {
		name      string
		sessionID string
	}{
		{"missing", ""},
		{"overlong", strings.Repeat("a", 129)},
		{"bad characters", "abc$%^"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/sse"
			if tc.sessionID != "" {
				target += "?sessionId=" + url.QueryEscape(tc.sessionID)
			}
			w := do(t, s, http.MethodPost, target, strings.NewReader(`{}`), mcpHeaders)
			require.Equal(t, http.StatusBadRequest, w.Code)
			var payload gwerrors.Payload
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, string(gwerrors.KindValidation), payload.Error.Code)
		})
	}
}

func TestStreamingSessionAnnouncesMessageEndpoint(t *testing.T) {
	srv := httptest.NewServer(newGatewayServer(t, okHandler()).Handler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	endpoint := readSSEData(t, reader)
	assert.Contains(t, endpoint, "/sse?sessionId=")

	// Deliver an initialize envelope into the announced session; the reply
	// arrives on the open stream.
	messageURL := endpoint
	if !strings.HasPrefix(messageURL, "/") {
		u, err := url.Parse(endpoint)
		require.NoError(t, err)
		messageURL = u.RequestURI()
	}
	init := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
		`"protocolVersion":"2024-11-05","capabilities":{},` +
		`"clientInfo":{"name":"probe","version":"0.0.1"}}}`
	post, err := http.Post(srv.URL+messageURL, "application/json", strings.NewReader(init))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusAccepted, post.StatusCode)

	reply := readSSEData(t, reader)
	assert.Contains(t, reply, "protocolVersion")
	assert.Contains(t, reply, serverName)
}

// readSSEData scans the stream for the next data line and returns its value.
func readSSEData(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err, "stream ended before a data line arrived")
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}
