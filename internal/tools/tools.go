// Package tools implements the gateway's MCP catalog: the tool handlers for
// the memory, API key, project, system, and intelligence families, plus the
// prompts and resources advertised alongside them. Handlers receive their
// collaborators through Deps and never reach for process state.
package tools

import (
	"lanonasis-gateway/internal/cache"
	"lanonasis-gateway/internal/config"
	"lanonasis-gateway/internal/health"
	"lanonasis-gateway/internal/registry"
	"lanonasis-gateway/internal/upstream"
)

// Enumerations shared by several tool schemas.
var (
	memoryTypes  = []string{"context", "project", "knowledge", "reference", "personal", "workflow"}
	sortFields   = []string{"created_at", "updated_at", "title"}
	sortOrders   = []string{"asc", "desc"}
	accessLevels = []string{"public", "authenticated", "team", "admin", "enterprise"}
	docSections  = []string{"all", "api", "guides", "sdks"}
)

// Deps carries the collaborators the handlers operate on.
type Deps struct {
	API       *upstream.Client
	Functions *upstream.Client
	Caches    *cache.Manager
	Checker   *health.Checker
	Config    *config.Config
	Version   string
}

// Register adds every tool, prompt, and resource to the registry. Called once
// during startup; any error aborts the boot.
func Register(reg *registry.Registry, deps Deps) error {
	registrars := []func(*registry.Registry, Deps) error{
		registerMemoryTools,
		registerAPIKeyTools,
		registerProjectTools,
		registerSystemTools,
		registerIntelligenceTools,
		registerPrompts,
		registerResources,
	}
	for _, register := range registrars {
		if err := register(reg, deps); err != nil {
			return err
		}
	}
	return nil
}

// registerAll is the shared loop for one family's descriptor/handler pairs.
func registerAll(reg *registry.Registry, entries []toolEntry) error {
	for _, e := range entries {
		if err := reg.RegisterTool(e.desc, e.handler); err != nil {
			return err
		}
	}
	return nil
}

type toolEntry struct {
	desc    registry.Descriptor
	handler registry.Handler
}
