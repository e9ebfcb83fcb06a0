package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"lanonasis-gateway/internal/registry"
)

func registerPrompts(reg *registry.Registry, deps Deps) error {
	prompts := []struct {
		prompt  mcp.Prompt
		handler func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error)
	}{
		{memoryWorkflowPrompt(), memoryWorkflowHandler},
		{apiKeyManagementPrompt(), apiKeyManagementHandler},
		{intelligenceGuidePrompt(), intelligenceGuideHandler},
	}
	for _, p := range prompts {
		if err := reg.RegisterPrompt(p.prompt, p.handler); err != nil {
			return err
		}
	}
	return nil
}

func memoryWorkflowPrompt() mcp.Prompt {
	return mcp.Prompt{
		Name:        "memory_workflow",
		Description: "Guide through a memory management task using the gateway tools.",
		Arguments: []mcp.PromptArgument{
			{Name: "task", Description: "What you want to accomplish with the memory store", Required: true},
			{Name: "memory_type", Description: "Memory type to focus on: " + strings.Join(memoryTypes, ", ")},
		},
	}
}

func memoryWorkflowHandler(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := req.Params.Arguments["task"]
	if task == "" {
		return nil, fmt.Errorf("task argument is required")
	}
	memoryType := req.Params.Arguments["memory_type"]
	if memoryType == "" {
		memoryType = "context"
	}

	text := fmt.Sprintf(`Help me with this memory task: %s

Work with %q type memories. Available tools:
- search_memories finds existing entries by semantic similarity before creating new ones.
- list_memories pages through entries filtered by type and tags.
- create_memory stores a new entry; use create_memory_chunked for content longer than a few thousand characters so it is split with overlap.
- update_memory changes fields on an existing entry; delete_memory removes one.
- memory_stats summarizes the store.

Start by searching for related entries, then decide whether to create, update, or consolidate.`, task, memoryType)

	return &mcp.GetPromptResult{
		Description: "Memory management workflow",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(text)},
		},
	}, nil
}

func apiKeyManagementPrompt() mcp.Prompt {
	return mcp.Prompt{
		Name:        "api_key_management",
		Description: "Guide through API key lifecycle operations.",
		Arguments: []mcp.PromptArgument{
			{Name: "operation", Description: "Lifecycle step of interest: create, rotate, revoke, delete, or audit"},
		},
	}
}

func apiKeyManagementHandler(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	operation := req.Params.Arguments["operation"]
	if operation == "" {
		operation = "audit"
	}

	text := fmt.Sprintf(`Help me %s API keys safely.

Available tools and their consequences:
- list_api_keys shows key metadata; secrets are never included.
- create_api_key issues a new key; the secret appears only once, in that response, so store it immediately.
- rotate_api_key replaces the secret; the old one stops working the moment the call succeeds, so plan the consumer switch first.
- revoke_api_key disables a key without deleting its record; delete_api_key removes it entirely.

Before any destructive step, list the keys and confirm the target id. Prefer revoke over delete when an audit trail matters.`, operation)

	return &mcp.GetPromptResult{
		Description: "API key lifecycle guidance",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(text)},
		},
	}, nil
}

func intelligenceGuidePrompt() mcp.Prompt {
	return mcp.Prompt{
		Name:        "intelligence_guide",
		Description: "Guide through the memory intelligence and analytics tools.",
		Arguments: []mcp.PromptArgument{
			{Name: "goal", Description: "What you want to learn from the memory store"},
		},
	}
}

func intelligenceGuideHandler(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	goal := req.Params.Arguments["goal"]
	if goal == "" {
		goal = "understand what is stored and how it is used"
	}

	text := fmt.Sprintf(`My goal: %s.

The intelligence tools analyze the memory store without modifying it:
- intelligence_suggest_tags proposes tags for a piece of content before storing it.
- intelligence_find_related finds entries similar to a given one; tune threshold to widen or narrow the match.
- intelligence_detect_duplicates lists near-duplicate entries worth consolidating.
- intelligence_extract_insights pulls structured findings out of raw content.
- intelligence_analyze_patterns reports usage trends over a timeframe such as 7d or 30d.
- intelligence_health_check verifies the analytics upstream is reachable before a long analysis.

Chain them: check health, analyze patterns for the big picture, then drill into duplicates and related entries.`, goal)

	return &mcp.GetPromptResult{
		Description: "Memory intelligence guidance",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(text)},
		},
	}, nil
}
