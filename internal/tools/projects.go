package tools

import (
	"context"

	"lanonasis-gateway/internal/registry"
	"lanonasis-gateway/internal/upstream"
)

func registerProjectTools(reg *registry.Registry, deps Deps) error {
	return registerAll(reg, []toolEntry{
		{listProjectsTool(), listProjectsHandler(deps)},
		{createProjectTool(), createProjectHandler(deps)},
		{getOrganizationTool(), getOrganizationHandler(deps)},
	})
}

func listProjectsTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "list_projects",
		Title:       "List Projects",
		Description: "List the organization's projects.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
	}
}

func listProjectsHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.ListProjects(ctx)
	}
}

func createProjectTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "create_project",
		Title:       "Create Project",
		Description: "Create a new project.",
		RiskLevel:   registry.RiskMedium,
		Fields: []registry.Field{
			boundedStringField("name", "Name of the project", true, 1, 100),
			boundedStringField("description", "What the project is for", false, 0, 500),
			stringField("organization_id", "Organization to create the project in", false),
		},
	}
}

func createProjectHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.CreateProject(ctx, upstream.CreateProjectParams{
			Name:           stringArg(args, "name", ""),
			Description:    stringArg(args, "description", ""),
			OrganizationID: stringArg(args, "organization_id", ""),
		})
	}
}

func getOrganizationTool() registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_organization_info",
		Title:       "Get Organization Info",
		Description: "Fetch the caller's organization record.",
		ReadOnly:    true,
		Idempotent:  true,
		RiskLevel:   registry.RiskLow,
	}
}

func getOrganizationHandler(deps Deps) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return deps.API.GetOrganization(ctx)
	}
}
