package upstream

import "context"

// ListProjects fetches the caller's projects.
func (c *Client) ListProjects(ctx context.Context) (Payload, error) {
	return c.Get(ctx, "/projects", nil)
}

// CreateProjectParams is the write shape for a new project.
type CreateProjectParams struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// CreateProject provisions a new project.
func (c *Client) CreateProject(ctx context.Context, p CreateProjectParams) (Payload, error) {
	return c.Post(ctx, "/projects", p)
}

// GetOrganization fetches the caller's organization record.
func (c *Client) GetOrganization(ctx context.Context) (Payload, error) {
	return c.Get(ctx, "/organization", nil)
}
