package tools

import (
	"context"

	"lanonasis-gateway/internal/registry"
	"lanonasis-gateway/internal/upstream"
)

func registerAPIKeyTools(reg *registry.Registry, deps Deps) error {
	return registerAll(reg, []toolEntry{
		{listAPIKeysTool(), listAPIKeysHandler(deps)},
		{createAPIKeyTool(), createAPIKeyHandler(deps)},
		{deleteAPIKeyTool(), deleteAPIKeyHandler(deps)},
		{rotateAPIKeyTool(), rotateAPIKeyHandler(deps)},
		{revokeAPIKeyTool(), revokeAPIKeyHandler(deps)},
	})
}

func listAPIKeysTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "list_api_keys",
		Title:       "List API Keys",
		Description: "List API keys, optionally scoped to one project. Secrets are never returned.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			stringField("project_id", "Only list keys belonging to this project", false),
		},
	}
}

func listAPIKeysHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.ListAPIKeys(ctx, stringArg(args, "project_id", ""))
	}
}

func createAPIKeyTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "create_api_key",
		Title:       "Create API Key",
		Description: "Create a new API key. The secret appears only in this response.",
		RiskLevel:   registry.RiskMedium,
		Fields: []registry.Field{
			boundedStringField("name", "Name of the key", true, 1, 100),
			boundedStringField("description", "What the key is for", false, 0, 500),
			stringField("project_id", "Project to attach the key to", false),
			enumField("access_level", "Access level granted to the key", accessLevels, "authenticated"),
			intField("expires_in_days", "Days until the key expires", 1, 365, 90),
		},
	}
}

func createAPIKeyHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.CreateAPIKey(ctx, upstream.CreateAPIKeyParams{
			Name:          stringArg(args, "name", ""),
			Description:   stringArg(args, "description", ""),
			ProjectID:     stringArg(args, "project_id", ""),
			AccessLevel:   stringArg(args, "access_level", "authenticated"),
			ExpiresInDays: intArg(args, "expires_in_days", 90),
		})
	}
}

func deleteAPIKeyTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "delete_api_key",
		Title:       "Delete API Key",
		Description: "Delete an API key permanently.",
		Destructive: true,
		Idempotent:  true,
		RiskLevel:   registry.RiskHigh,
		Fields: []registry.Field{
			stringField("key_id", "Identifier of the key", true),
		},
	}
}

func deleteAPIKeyHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.DeleteAPIKey(ctx, stringArg(args, "key_id", ""))
	}
}

func rotateAPIKeyTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "rotate_api_key",
		Title:       "Rotate API Key",
		Description: "Replace a key's secret. The previous secret stops working immediately.",
		Destructive: true,
		RiskLevel:   registry.RiskHigh,
		Fields: []registry.Field{
			stringField("key_id", "Identifier of the key", true),
		},
	}
}

func rotateAPIKeyHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.RotateAPIKey(ctx, stringArg(args, "key_id", ""))
	}
}

func revokeAPIKeyTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "revoke_api_key",
		Title:       "Revoke API Key",
		Description: "Revoke an API key without deleting its record.",
		Destructive: true,
		Idempotent:  true,
		RiskLevel:   registry.RiskHigh,
		Fields: []registry.Field{
			stringField("key_id", "Identifier of the key", true),
		},
	}
}

func revokeAPIKeyHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.RevokeAPIKey(ctx, stringArg(args, "key_id", ""))
	}
}
