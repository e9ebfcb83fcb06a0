package tools

import (
	"context"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/registry"
)

func registerSystemTools(reg *registry.Registry, deps Deps) error {
	return registerAll(reg, []toolEntry{
		{getHealthStatusTool(), getHealthStatusHandler(deps)},
		{getAuthStatusTool(), getAuthStatusHandler(deps)},
		{getConfigTool(), getConfigHandler(deps)},
		{setConfigTool(), setConfigHandler(deps)},
	})
}

func getHealthStatusTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_health_status",
		Title:       "Get Health Status",
		Description: "Report gateway health, including per-upstream probe results.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
	}
}

// getHealthStatusHandler reports the gateway's own view of upstream health.
// It never fails: an unreachable upstream shows up in the report instead of
// failing the call.
func getHealthStatusHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		report := deps.Checker.Check(ctx)
		return map[string]interface{}{
			"status":    report.Status,
			"version":   deps.Version,
			"upstreams": report.Upstreams,
			"checkedAt": report.CheckedAt,
		}, nil
	}
}

func getAuthStatusTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_auth_status",
		Title:       "Get Auth Status",
		Description: "Report whether the gateway's upstream credentials are accepted.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
	}
}

func getAuthStatusHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.AuthStatus(ctx)
	}
}

func getConfigTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_config",
		Title:       "Get Config",
		Description: "Read a configuration value, or all values when no key is given.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
		Fields: []registry.Field{
			stringField("key", "Configuration key to read", false),
		},
	}
}

func getConfigHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.GetConfig(ctx, stringArg(args, "key", ""))
	}
}

func setConfigTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "set_config",
		Title:       "Set Config",
		Description: "Write a configuration value.",
		Idempotent:  true,
		RiskLevel:   registry.RiskCritical,
		Fields: []registry.Field{
			stringField("key", "Configuration key to write", true),
			{Name: "value", Description: "Value to store; any JSON value is accepted", Required: true},
		},
	}
}

func setConfigHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		value, ok := args["value"]
		if !ok {
			return nil, gwerrors.Validation("missing configuration value",
				gwerrors.FieldError{Field: "value", Message: "required field is missing"})
		}
		return deps.API.SetConfig(ctx, stringArg(args, "key", ""), value)
	}
}
