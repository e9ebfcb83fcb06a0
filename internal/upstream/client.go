package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"lanonasis-gateway/internal/config"
	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/requestid"
	"lanonasis-gateway/internal/resilience"
)

// Path prefixes the two upstream families mount their APIs under.
const (
	apiPrefix       = "/api/v1"
	functionsPrefix = "/functions/v1"
)

// Payload is a decoded JSON response body.
type Payload = map[string]interface{}

// Client is the typed HTTP client for one upstream family. Every call passes
// through the upstream's circuit breaker first, then the retrying executor,
// so an open breaker rejects before any attempt is made.
type Client struct {
	name     string
	base     string
	exec     *Executor
	breakers *resilience.Registry
	header   http.Header
}

func newClient(name, baseURL, prefix string, cfg *config.Config, breakers *resilience.Registry, version string) *Client {
	header := make(http.Header)
	header.Set("User-Agent", "lanonasis-gateway/"+version)
	header.Set("Accept", "application/json")
	if cfg.APIKey != "" {
		header.Set("X-API-Key", cfg.APIKey)
	}
	if cfg.BearerToken != "" {
		header.Set("Authorization", "Bearer "+cfg.BearerToken)
	}
	return &Client{
		name:     name,
		base:     strings.TrimRight(baseURL, "/") + prefix,
		exec:     NewExecutor(cfg.RequestTimeout, cfg.MaxRetries, cfg.RetryBaseDelay),
		breakers: breakers,
		header:   header,
	}
}

// NewAPIClient builds the client for the primary REST API.
func NewAPIClient(cfg *config.Config, breakers *resilience.Registry, version string) *Client {
	return newClient(resilience.BreakerAPI, cfg.APIBaseURL, apiPrefix, cfg, breakers, version)
}

// NewFunctionsClient builds the client for the serverless functions domain.
func NewFunctionsClient(cfg *config.Config, breakers *resilience.Registry, version string) *Client {
	return newClient(resilience.BreakerEdgeFunctions, cfg.FunctionsBaseURL, functionsPrefix, cfg, breakers, version)
}

// Name returns the upstream's breaker name.
func (c *Client) Name() string { return c.name }

// BaseURL returns the resolved base including the family path prefix.
func (c *Client) BaseURL() string { return c.base }

// Get issues a GET for path with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (Payload, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (Payload, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (Payload, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) (Payload, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (Payload, error) {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return nil, gwerrors.Internal("encoding request body", err)
		}
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	requestID := requestid.From(ctx)

	build := func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader
		if encoded != nil {
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, err
		}
		for key, values := range c.header {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if requestID != "" {
			req.Header.Set(requestid.Header, requestID)
		}
		return req, nil
	}

	result, err := c.breakers.Execute(c.name, func() (interface{}, error) {
		return c.exec.Do(ctx, c.name, build)
	})
	if err != nil {
		var gwErr *gwerrors.Error
		if errors.As(err, &gwErr) {
			return nil, gwErr
		}
		return nil, gwerrors.Normalize(err)
	}
	return decodePayload(result.(*Response).Body)
}

// decodePayload turns a response body into a map. Non-object JSON and plain
// text are wrapped under "data" so handlers always see an object.
func decodePayload(body []byte) (Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, nil
	}
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Payload{"data": string(body)}, nil
	}
	if m, ok := decoded.(map[string]interface{}); ok {
		return m, nil
	}
	return Payload{"data": decoded}, nil
}
