package upstream

import (
	"context"
	"net/url"
)

// ListAPIKeys fetches API keys, optionally scoped to one project.
func (c *Client) ListAPIKeys(ctx context.Context, projectID string) (Payload, error) {
	var q url.Values
	if projectID != "" {
		q = url.Values{"project_id": {projectID}}
	}
	return c.Get(ctx, "/api-keys", q)
}

// CreateAPIKeyParams is the write shape for a new API key.
type CreateAPIKeyParams struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ProjectID     string `json:"project_id,omitempty"`
	AccessLevel   string `json:"access_level,omitempty"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

// CreateAPIKey provisions a new API key. The secret appears only in this
// response.
func (c *Client) CreateAPIKey(ctx context.Context, p CreateAPIKeyParams) (Payload, error) {
	return c.Post(ctx, "/api-keys", p)
}

// DeleteAPIKey permanently removes an API key.
func (c *Client) DeleteAPIKey(ctx context.Context, id string) (Payload, error) {
	return c.Delete(ctx, "/api-keys/"+url.PathEscape(id))
}

// RotateAPIKey replaces the key's secret while keeping its identity.
func (c *Client) RotateAPIKey(ctx context.Context, id string) (Payload, error) {
	return c.Post(ctx, "/api-keys/"+url.PathEscape(id)+"/rotate", nil)
}

// RevokeAPIKey disables an API key without deleting its record.
func (c *Client) RevokeAPIKey(ctx context.Context, id string) (Payload, error) {
	return c.Post(ctx, "/api-keys/"+url.PathEscape(id)+"/revoke", nil)
}
