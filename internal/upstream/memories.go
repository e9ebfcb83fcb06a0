package upstream

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// ListMemoriesParams filters and pages a memory listing. Zero values are
// omitted so the upstream applies its own defaults.
type ListMemoriesParams struct {
	Limit      int
	Offset     int
	MemoryType string
	Tags       []string
	SortBy     string
	SortOrder  string
}

// ListMemories fetches a page of memory records.
func (c *Client) ListMemories(ctx context.Context, p ListMemoriesParams) (Payload, error) {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.MemoryType != "" {
		q.Set("memory_type", p.MemoryType)
	}
	if len(p.Tags) > 0 {
		q.Set("tags", strings.Join(p.Tags, ","))
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sort_order", p.SortOrder)
	}
	return c.Get(ctx, "/memory", q)
}

// CreateMemoryParams is the write shape for a new memory record.
type CreateMemoryParams struct {
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	MemoryType string                 `json:"memory_type,omitempty"`
	Tags       []string               `json:"tags,omitempty"`
	TopicID    string                 `json:"topic_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// CreateMemory stores a new memory record.
func (c *Client) CreateMemory(ctx context.Context, p CreateMemoryParams) (Payload, error) {
	return c.Post(ctx, "/memory", p)
}

// GetMemory fetches one memory record by id.
func (c *Client) GetMemory(ctx context.Context, id string) (Payload, error) {
	return c.Get(ctx, "/memory/"+url.PathEscape(id), nil)
}

// UpdateMemory applies a partial update. fields carries only the attributes
// to change.
func (c *Client) UpdateMemory(ctx context.Context, id string, fields Payload) (Payload, error) {
	return c.Put(ctx, "/memory/"+url.PathEscape(id), fields)
}

// DeleteMemory removes one memory record by id.
func (c *Client) DeleteMemory(ctx context.Context, id string) (Payload, error) {
	return c.Delete(ctx, "/memory/"+url.PathEscape(id))
}

// SearchMemoriesParams shapes a semantic search request.
type SearchMemoriesParams struct {
	Query       string   `json:"query"`
	MemoryTypes []string `json:"memory_types,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Threshold   float64  `json:"threshold,omitempty"`
}

// SearchMemories runs a semantic search over memory records.
func (c *Client) SearchMemories(ctx context.Context, p SearchMemoriesParams) (Payload, error) {
	return c.Post(ctx, "/memory/search", p)
}

// SearchDocs searches the platform documentation.
func (c *Client) SearchDocs(ctx context.Context, query, section string, limit int) (Payload, error) {
	q := url.Values{}
	q.Set("q", query)
	if section != "" && section != "all" {
		q.Set("section", section)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.Get(ctx, "/docs/search", q)
}
