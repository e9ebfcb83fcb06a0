package tools

import (
	"context"

	"lanonasis-gateway/internal/cache"
	"lanonasis-gateway/internal/health"
	"lanonasis-gateway/internal/registry"
)

func registerIntelligenceTools(reg *registry.Registry, deps Deps) error {
	return registerAll(reg, []toolEntry{
		{intelligenceHealthTool(), intelligenceHealthHandler(deps)},
		{suggestTagsTool(), suggestTagsHandler(deps)},
		{findRelatedTool(), findRelatedHandler(deps)},
		{detectDuplicatesTool(), detectDuplicatesHandler(deps)},
		{extractInsightsTool(), extractInsightsHandler(deps)},
		{analyzePatternsTool(), analyzePatternsHandler(deps)},
		{memoryStatsTool(), memoryStatsHandler(deps)},
		{memoryBulkDeleteTool(), memoryBulkDeleteHandler(deps)},
	})
}

func intelligenceHealthTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "intelligence_health_check",
		Title:       "Intelligence Health Check",
		Description: "Probe the intelligence upstream and report its status.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
	}
}

// intelligenceHealthHandler probes only the functions upstream. Like the
// gateway-wide health tool it reports failures instead of raising them.
func intelligenceHealthHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return health.ProbeUpstream(ctx, deps.Functions), nil
	}
}

func suggestTagsTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "intelligence_suggest_tags",
		Title:       "Suggest Tags",
		Description: "Suggest tags for a piece of content.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			{Name: "content", Type: "string", Description: "Content to analyze", Required: true,
				Schema: map[string]interface{}{"minLength": 1}},
			intField("max_suggestions", "Maximum number of tags to suggest", 1, 20, 5),
		},
	}
}

func suggestTagsHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.Functions.SuggestTags(ctx,
			stringArg(args, "content", ""),
			intArg(args, "max_suggestions", 5),
		)
	}
}

func findRelatedTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "intelligence_find_related",
		Title:       "Find Related Memories",
		Description: "Find memories related to a given entry.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			stringField("memory_id", "Entry to find relatives of", true),
			intField("limit", "Maximum number of results", 1, 50, 10),
			floatField("threshold", "Minimum similarity score", 0, 1, 0.7),
		},
	}
}

func findRelatedHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.Functions.FindRelated(ctx,
			stringArg(args, "memory_id", ""),
			intArg(args, "limit", 10),
			floatArg(args, "threshold", 0.7),
		)
	}
}

func detectDuplicatesTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "intelligence_detect_duplicates",
		Title:       "Detect Duplicate Memories",
		Description: "Detect near-duplicate memory entries.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			floatField("threshold", "Similarity above which entries count as duplicates", 0.5, 1, 0.9),
		},
	}
}

func detectDuplicatesHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.Functions.DetectDuplicates(ctx, floatArg(args, "threshold", 0.9))
	}
}

func extractInsightsTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "intelligence_extract_insights",
		Title:       "Extract Insights",
		Description: "Extract structured insights from a piece of content.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			{Name: "content", Type: "string", Description: "Content to analyze", Required: true,
				Schema: map[string]interface{}{"minLength": 1}},
			stringArrayField("insight_types", "Kinds of insight to extract", 10),
		},
	}
}

func extractInsightsHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.Functions.ExtractInsights(ctx,
			stringArg(args, "content", ""),
			stringsArg(args, "insight_types"),
		)
	}
}

func analyzePatternsTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "intelligence_analyze_patterns",
		Title:       "Analyze Memory Patterns",
		Description: "Analyze usage patterns across memory entries.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			{Name: "timeframe", Type: "string", Description: "Window to analyze, such as 7d or 30d",
				Default: "30d", Schema: map[string]interface{}{"maxLength": 20}},
			enumArrayField("memory_types", "Restrict the analysis to these types", memoryTypes),
		},
	}
}

func analyzePatternsHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.Functions.AnalyzePatterns(ctx,
			stringArg(args, "timeframe", "30d"),
			stringsArg(args, "memory_types"),
		)
	}
}

func memoryStatsTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "memory_stats",
		Title:       "Memory Statistics",
		Description: "Aggregate statistics over the memory store.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
	}
}

func memoryStatsHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.Caches.Stats().GetOrFetch(ctx, cache.StatsKey("memory"), 0,
			func(ctx context.Context) (cache.Payload, error) {
				return deps.Functions.MemoryStats(ctx)
			})
	}
}

func memoryBulkDeleteTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "memory_bulk_delete",
		Title:       "Bulk Delete Memories",
		Description: "Delete up to 100 memory entries in one call.",
		Destructive: true,
		RiskLevel:   registry.RiskHigh,
		Fields: []registry.Field{
			{Name: "memory_ids", Type: "array", Description: "Identifiers of the entries to delete",
				Required: true,
				Schema: map[string]interface{}{
					"items":    map[string]interface{}{"type": "string"},
					"minItems": 1,
					"maxItems": 100,
				}},
		},
	}
}

func memoryBulkDeleteHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		out, err := deps.Functions.BulkDeleteMemories(ctx, stringsArg(args, "memory_ids"))
		if err != nil {
			return nil, err
		}
		deps.Caches.InvalidateMemoryLists()
		deps.Caches.InvalidateStats()
		return out, nil
	}
}
