package upstream

import (
	"context"
	"net/url"
)

// Health probes the upstream's health endpoint. Works for both families: the
// path is relative to the client's prefix.
func (c *Client) Health(ctx context.Context) (Payload, error) {
	return c.Get(ctx, "/health", nil)
}

// AuthStatus reports whether the configured credentials are accepted.
func (c *Client) AuthStatus(ctx context.Context) (Payload, error) {
	return c.Get(ctx, "/auth/status", nil)
}

// GetConfig reads service configuration, optionally a single key.
func (c *Client) GetConfig(ctx context.Context, key string) (Payload, error) {
	var q url.Values
	if key != "" {
		q = url.Values{"key": {key}}
	}
	return c.Get(ctx, "/config", q)
}

// SetConfig writes one configuration value.
func (c *Client) SetConfig(ctx context.Context, key string, value interface{}) (Payload, error) {
	return c.Put(ctx, "/config", Payload{"key": key, "value": value})
}
