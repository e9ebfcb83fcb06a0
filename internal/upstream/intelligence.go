package upstream

import "context"

// Intelligence operations live on the functions domain and run against the
// caller's memory corpus.

// SuggestTags asks for tag suggestions for a piece of content.
func (c *Client) SuggestTags(ctx context.Context, content string, maxSuggestions int) (Payload, error) {
	body := Payload{"content": content}
	if maxSuggestions > 0 {
		body["max_suggestions"] = maxSuggestions
	}
	return c.Post(ctx, "/intelligence/suggest-tags", body)
}

// FindRelated returns memories similar to the given one.
func (c *Client) FindRelated(ctx context.Context, memoryID string, limit int, threshold float64) (Payload, error) {
	body := Payload{"memory_id": memoryID}
	if limit > 0 {
		body["limit"] = limit
	}
	if threshold > 0 {
		body["threshold"] = threshold
	}
	return c.Post(ctx, "/intelligence/find-related", body)
}

// DetectDuplicates scans the corpus for near-duplicate memories.
func (c *Client) DetectDuplicates(ctx context.Context, threshold float64) (Payload, error) {
	body := Payload{}
	if threshold > 0 {
		body["threshold"] = threshold
	}
	return c.Post(ctx, "/intelligence/detect-duplicates", body)
}

// ExtractInsights derives structured insights from content.
func (c *Client) ExtractInsights(ctx context.Context, content string, insightTypes []string) (Payload, error) {
	body := Payload{"content": content}
	if len(insightTypes) > 0 {
		body["insight_types"] = insightTypes
	}
	return c.Post(ctx, "/intelligence/extract-insights", body)
}

// AnalyzePatterns reports usage patterns over a timeframe.
func (c *Client) AnalyzePatterns(ctx context.Context, timeframe string, memoryTypes []string) (Payload, error) {
	body := Payload{}
	if timeframe != "" {
		body["timeframe"] = timeframe
	}
	if len(memoryTypes) > 0 {
		body["memory_types"] = memoryTypes
	}
	return c.Post(ctx, "/intelligence/analyze-patterns", body)
}

// MemoryStats returns corpus-wide memory statistics.
func (c *Client) MemoryStats(ctx context.Context) (Payload, error) {
	return c.Get(ctx, "/memory/stats", nil)
}

// BulkDeleteMemories removes a batch of memories by id.
func (c *Client) BulkDeleteMemories(ctx context.Context, ids []string) (Payload, error) {
	return c.Post(ctx, "/memory/bulk-delete", Payload{"memory_ids": ids})
}
