package tools

import (
	"context"

	"lanonasis-gateway/internal/cache"
	"lanonasis-gateway/internal/chunk"
	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/registry"
	"lanonasis-gateway/internal/upstream"
)

func registerMemoryTools(reg *registry.Registry, deps Deps) error {
	return registerAll(reg, []toolEntry{
		{listMemoriesTool(), listMemoriesHandler(deps)},
		{createMemoryTool(), createMemoryHandler(deps)},
		{createMemoryChunkedTool(), createMemoryChunkedHandler(deps)},
		{getMemoryTool(), getMemoryHandler(deps)},
		{updateMemoryTool(), updateMemoryHandler(deps)},
		{deleteMemoryTool(), deleteMemoryHandler(deps)},
		{searchMemoriesTool(), searchMemoriesHandler(deps)},
		{searchDocsTool(), searchDocsHandler(deps)},
	})
}

func listMemoriesTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "list_memories",
		Title:       "List Memories",
		Description: "List memory entries with pagination, type and tag filters, and sorting.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			intField("limit", "Maximum number of entries to return", 1, 100, 20),
			intField("offset", "Number of entries to skip", 0, 10000, 0),
			enumField("memory_type", "Only return entries of this type", memoryTypes, ""),
			stringArrayField("tags", "Only return entries carrying all of these tags", 10),
			enumField("sort_by", "Field to sort by", sortFields, "created_at"),
			enumField("sort_order", "Sort direction", sortOrders, "desc"),
		},
	}
}

func listMemoriesHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		params := upstream.ListMemoriesParams{
			Limit:      intArg(args, "limit", 20),
			Offset:     intArg(args, "offset", 0),
			MemoryType: stringArg(args, "memory_type", ""),
			Tags:       stringsArg(args, "tags"),
			SortBy:     stringArg(args, "sort_by", "created_at"),
			SortOrder:  stringArg(args, "sort_order", "desc"),
		}
		return deps.Caches.MemoryList().GetOrFetch(ctx, cache.MemoryListKey(params), 0,
			func(ctx context.Context) (cache.Payload, error) {
				return deps.API.ListMemories(ctx, params)
			})
	}
}

func createMemoryTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "create_memory",
		Title:       "Create Memory",
		Description: "Create a new memory entry.",
		RiskLevel:   registry.RiskMedium,
		Fields: []registry.Field{
			boundedStringField("title", "Title of the entry", true, 1, 500),
			{Name: "content", Type: "string", Description: "Body of the entry", Required: true,
				Schema: map[string]interface{}{"minLength": 1}},
			enumField("memory_type", "Type of the entry", memoryTypes, "context"),
			stringArrayField("tags", "Tags to attach", 10),
			stringField("topic_id", "Topic to file the entry under", false),
			objectField("metadata", "Arbitrary metadata to store with the entry"),
		},
	}
}

func createMemoryHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		out, err := deps.API.CreateMemory(ctx, upstream.CreateMemoryParams{
			Title:      stringArg(args, "title", ""),
			Content:    stringArg(args, "content", ""),
			MemoryType: stringArg(args, "memory_type", "context"),
			Tags:       stringsArg(args, "tags"),
			TopicID:    stringArg(args, "topic_id", ""),
			Metadata:   mapArg(args, "metadata"),
		})
		if err != nil {
			return nil, err
		}
		deps.Caches.InvalidateMemoryLists()
		deps.Caches.InvalidateStats()
		return out, nil
	}
}

func createMemoryChunkedTool() registry.Descriptor {
	defaults := chunk.DefaultOptions()
	return registry.Descriptor{
		Name:        "create_memory_chunked",
		Title:       "Create Memory (Chunked)",
		Description: "Create memory entries from oversized content, splitting it into overlapping chunks at natural boundaries.",
		RiskLevel:   registry.RiskMedium,
		Fields: []registry.Field{
			boundedStringField("title", "Base title; chunked entries get a part suffix", true, 1, 500),
			{Name: "content", Type: "string", Description: "Body to split and store", Required: true,
				Schema: map[string]interface{}{"minLength": 1}},
			enumField("memory_type", "Type of the entries", memoryTypes, "context"),
			stringArrayField("tags", "Tags to attach to every chunk", 10),
			objectField("metadata", "Metadata to store with every chunk"),
			intField("maxChunkSize", "Largest chunk to produce, in bytes", 100, 50000, defaults.MaxChunkSize),
			intField("overlapSize", "Context overlap between adjacent chunks, in bytes", 0, 1000, defaults.OverlapSize),
			intField("minChunkSize", "Smallest chunk to produce, in bytes", 50, 5000, defaults.MinChunkSize),
		},
	}
}

// createMemoryChunkedHandler is the composite create: it splits the content,
// issues one create per chunk sequentially to preserve upstream write order,
// and reports per-chunk outcomes instead of failing the whole call on the
// first bad chunk.
func createMemoryChunkedHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		defaults := chunk.DefaultOptions()
		opts := chunk.Options{
			MaxChunkSize: intArg(args, "maxChunkSize", defaults.MaxChunkSize),
			OverlapSize:  intArg(args, "overlapSize", defaults.OverlapSize),
			MinChunkSize: intArg(args, "minChunkSize", defaults.MinChunkSize),
		}
		content := stringArg(args, "content", "")

		payloads := chunk.BuildCreates(
			stringArg(args, "title", ""),
			content,
			stringArg(args, "memory_type", "context"),
			stringsArg(args, "tags"),
			mapArg(args, "metadata"),
			opts,
		)

		results := make([]interface{}, 0, len(payloads))
		chunkErrors := make([]map[string]interface{}, 0)
		for i, p := range payloads {
			out, err := deps.API.CreateMemory(ctx, upstream.CreateMemoryParams{
				Title:      p.Title,
				Content:    p.Content,
				MemoryType: p.Type,
				Tags:       p.Tags,
				Metadata:   p.Metadata,
			})
			if err != nil {
				gwErr := gwerrors.Normalize(err)
				chunkErrors = append(chunkErrors, map[string]interface{}{
					"chunk":   i + 1,
					"code":    string(gwErr.Kind),
					"message": gwErr.Message,
				})
				continue
			}
			results = append(results, out)
		}

		if len(results) > 0 {
			deps.Caches.InvalidateMemoryLists()
			deps.Caches.InvalidateStats()
		}

		summary := map[string]interface{}{
			"chunked":        len(payloads) > 1,
			"totalChunks":    len(payloads),
			"successful":     len(results),
			"failed":         len(chunkErrors),
			"originalLength": len(content),
			"results":        results,
		}
		if len(chunkErrors) > 0 {
			summary["errors"] = chunkErrors
		}
		return summary, nil
	}
}

func getMemoryTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_memory",
		Title:       "Get Memory",
		Description: "Fetch one memory entry by id.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			stringField("id", "Identifier of the entry", true),
		},
	}
}

func getMemoryHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.GetMemory(ctx, stringArg(args, "id", ""))
	}
}

func updateMemoryTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "update_memory",
		Title:       "Update Memory",
		Description: "Update fields of an existing memory entry.",
		Idempotent:  true,
		RiskLevel:   registry.RiskMedium,
		Fields: []registry.Field{
			stringField("id", "Identifier of the entry", true),
			boundedStringField("title", "New title", false, 1, 500),
			stringField("content", "New body", false),
			enumField("memory_type", "New type", memoryTypes, ""),
			stringArrayField("tags", "Replacement tag set", 10),
			objectField("metadata", "Replacement metadata"),
		},
	}
}

func updateMemoryHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		fields := upstream.Payload{}
		for _, name := range []string{"title", "content", "memory_type", "tags", "metadata"} {
			if v, ok := args[name]; ok {
				fields[name] = v
			}
		}
		if len(fields) == 0 {
			return nil, gwerrors.Validation("no fields to update",
				gwerrors.FieldError{Field: "arguments", Message: "at least one updatable field is required"})
		}

		out, err := deps.API.UpdateMemory(ctx, stringArg(args, "id", ""), fields)
		if err != nil {
			return nil, err
		}
		deps.Caches.InvalidateMemoryLists()
		return out, nil
	}
}

func deleteMemoryTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "delete_memory",
		Title:       "Delete Memory",
		Description: "Delete a memory entry permanently.",
		Destructive: true,
		Idempotent:  true,
		RiskLevel:   registry.RiskHigh,
		Fields: []registry.Field{
			stringField("id", "Identifier of the entry", true),
		},
	}
}

func deleteMemoryHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		out, err := deps.API.DeleteMemory(ctx, stringArg(args, "id", ""))
		if err != nil {
			return nil, err
		}
		deps.Caches.InvalidateMemoryLists()
		deps.Caches.InvalidateStats()
		return out, nil
	}
}

func searchMemoriesTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "search_memories",
		Title:       "Search Memories",
		Description: "Search memory entries semantically.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			boundedStringField("query", "Search query", true, 1, 1000),
			enumArrayField("memory_types", "Restrict the search to these types", memoryTypes),
			stringArrayField("tags", "Restrict the search to entries with these tags", 10),
			intField("limit", "Maximum number of results", 1, 100, 20),
			floatField("threshold", "Minimum similarity score", 0, 1, 0.7),
		},
	}
}

func searchMemoriesHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		params := upstream.SearchMemoriesParams{
			Query:       stringArg(args, "query", ""),
			MemoryTypes: stringsArg(args, "memory_types"),
			Tags:        stringsArg(args, "tags"),
			Limit:       intArg(args, "limit", 20),
			Threshold:   floatArg(args, "threshold", 0.7),
		}
		return deps.Caches.MemoryList().GetOrFetch(ctx, cache.MemoryListKey(params), 0,
			func(ctx context.Context) (cache.Payload, error) {
				return deps.API.SearchMemories(ctx, params)
			})
	}
}

func searchDocsTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "search_lanonasis_docs",
		Title:       "Search Lanonasis Docs",
		Description: "Search the Lanonasis platform documentation.",
		ReadOnly:    true,
		Idempotent:  true,
		OpenWorld:   true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			boundedStringField("query", "Search query", true, 1, 500),
			enumField("section", "Documentation section to search", docSections, "all"),
			intField("limit", "Maximum number of results", 1, 50, 10),
		},
	}
}

func searchDocsHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.SearchDocs(ctx,
			stringArg(args, "query", ""),
			stringArg(args, "section", "all"),
			intArg(args, "limit", 10),
		)
	}
}
