package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/requestid"
	"lanonasis-gateway/pkg/logging"
)

const (
	registerTimeout = 15 * time.Second
	registerBodyMax = 1 << 20
)

// advertisedScopes is the scope vocabulary published in the OAuth discovery
// documents. The gateway forwards credentials; it never enforces these.
var advertisedScopes = []string{
	"memories:read",
	"memories:write",
	"api_keys:manage",
	"projects:manage",
	"intelligence:run",
}

// handleServerCard serves the capability card at /server-info and
// /.well-known/mcp.json: catalog counts, transport URLs, and where to
// authenticate.
func (s *Server) handleServerCard(w http.ResponseWriter, r *http.Request) {
	tools, prompts, resources := s.reg.Counts()
	base := strings.TrimRight(s.cfg.ServerURL, "/")

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        serverName,
		"displayName": serverDisplayName,
		"version":     s.version,
		"description": serverDescription,
		"capabilities": map[string]interface{}{
			"tools":     tools,
			"prompts":   prompts,
			"resources": resources,
		},
		"riskLevels": s.riskSummary(),
		"transports": map[string]interface{}{
			"http":  base + "/mcp",
			"sse":   base + "/sse",
			"stdio": true,
		},
		"authentication": map[string]interface{}{
			"type":                "oauth2",
			"authorizationServer": s.cfg.AuthServerURL,
			"resource":            s.cfg.ResourceURL,
			"resourceMetadata":    base + "/.well-known/oauth-protected-resource",
			"registration":        base + "/register",
		},
	})
}

// riskSummary counts registered tools per advertised risk level.
func (s *Server) riskSummary() map[string]int {
	summary := make(map[string]int)
	for _, d := range s.reg.Descriptors() {
		summary[d.RiskLevel]++
	}
	return summary
}

// handleMCPConfig serves the connection card clients use to self-configure.
func (s *Server) handleMCPConfig(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(s.cfg.ServerURL, "/")
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        serverName,
		"version":     s.version,
		"description": serverDescription,
		"connections": []map[string]interface{}{
			{"type": "http", "url": base + "/mcp"},
			{"type": "sse", "url": base + "/sse"},
			{"type": "stdio", "command": "lanonasis-gateway", "args": []string{"serve", "--mode", "stdio"}},
		},
	})
}

// handleProtectedResource serves RFC 9728 resource metadata pointing clients
// at the authorization server.
func (s *Server) handleProtectedResource(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource":                 s.cfg.ResourceURL,
		"authorization_servers":    []string{s.cfg.AuthServerURL},
		"scopes_supported":         advertisedScopes,
		"bearer_methods_supported": []string{"header"},
		"resource_documentation":   s.cfg.ServerURL,
	})
}

// handleAuthorizationServer serves RFC 8414 metadata for the configured
// authorization server. Registration points back at this gateway's
// pass-through so clients without direct auth-server access still work.
func (s *Server) handleAuthorizationServer(w http.ResponseWriter, r *http.Request) {
	auth := strings.TrimRight(s.cfg.AuthServerURL, "/")
	base := strings.TrimRight(s.cfg.ServerURL, "/")

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                                auth,
		"authorization_endpoint":                auth + "/oauth/authorize",
		"token_endpoint":                        auth + "/oauth/token",
		"registration_endpoint":                 base + "/register",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported":      []string{"S256"},
		"token_endpoint_auth_methods_supported": []string{"none", "client_secret_basic"},
		"scopes_supported":                      advertisedScopes,
	})
}

// handleRegister forwards a dynamic client registration request to the
// authorization server and relays its response verbatim, status included.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AuthServerURL == "" {
		s.writeError(w, r, gwerrors.Unavailable("no authorization server configured", nil))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, registerBodyMax))
	if err != nil {
		s.writeError(w, r, gwerrors.Validation("registration body unreadable"))
		return
	}

	target := strings.TrimRight(s.cfg.AuthServerURL, "/") + "/oauth/register"
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		s.writeError(w, r, gwerrors.Internal("building registration request", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if id := requestid.From(r.Context()); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := s.registerClient.Do(req)
	if err != nil {
		s.writeError(w, r, gwerrors.Unavailable("authorization server unreachable", err))
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logging.Warn("HTTP", "Relaying registration response: %v", err)
	}
}
