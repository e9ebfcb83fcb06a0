// Package registry maintains the catalog of tools, prompts, and resources the
// gateway exposes over MCP, and dispatches tool calls through a fixed chain:
// schema validation, input sanitization, handler invocation, result
// serialization, and error normalization. Registration happens during startup;
// the catalog is read-only once attached to a server.
package registry

import (
	"context"
	"fmt"

	"lanonasis-gateway/internal/metrics"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Handler executes one tool call with validated, sanitized arguments. The
// returned value is serialized to JSON as the call's text payload.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

type promptEntry struct {
	prompt  mcp.Prompt
	handler server.PromptHandlerFunc
}

type resourceEntry struct {
	resource mcp.Resource
	handler  server.ResourceHandlerFunc
}

// Registry is the authoritative tool/prompt/resource catalog. It is not safe
// for concurrent registration; all Register* calls must complete before the
// registry is attached to a server.
type Registry struct {
	recorder *metrics.Recorder

	tools     map[string]*Tool
	order     []string
	prompts   []promptEntry
	resources []resourceEntry
}

// NewRegistry creates an empty registry recording call metrics on recorder.
func NewRegistry(recorder *metrics.Recorder) *Registry {
	return &Registry{
		recorder: recorder,
		tools:    make(map[string]*Tool),
	}
}

// RegisterTool adds a tool to the catalog. The descriptor's fields are
// compiled into a strict validation schema here so a malformed declaration
// fails at startup, not on the first call.
func (r *Registry) RegisterTool(d Descriptor, h Handler) error {
	if d.Name == "" {
		return fmt.Errorf("tool descriptor has no name")
	}
	if h == nil {
		return fmt.Errorf("tool %s has no handler", d.Name)
	}
	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("tool %s is already registered", d.Name)
	}
	if d.RiskLevel == "" {
		d.RiskLevel = RiskLow
	}
	if !riskLevels[d.RiskLevel] {
		return fmt.Errorf("tool %s has unknown risk level %q", d.Name, d.RiskLevel)
	}

	doc := d.strictDocument()
	schema, err := compileSchema(d.Name, doc)
	if err != nil {
		return err
	}

	r.tools[d.Name] = &Tool{
		Descriptor: d,
		handler:    h,
		mcp:        d.mcpTool(),
		schema:     schema,
		doc:        doc,
	}
	r.order = append(r.order, d.Name)
	return nil
}

// RegisterPrompt adds a prompt to the catalog.
func (r *Registry) RegisterPrompt(p mcp.Prompt, h server.PromptHandlerFunc) error {
	if p.Name == "" {
		return fmt.Errorf("prompt has no name")
	}
	for _, existing := range r.prompts {
		if existing.prompt.Name == p.Name {
			return fmt.Errorf("prompt %s is already registered", p.Name)
		}
	}
	r.prompts = append(r.prompts, promptEntry{prompt: p, handler: h})
	return nil
}

// RegisterResource adds a resource to the catalog.
func (r *Registry) RegisterResource(res mcp.Resource, h server.ResourceHandlerFunc) error {
	if res.URI == "" {
		return fmt.Errorf("resource has no URI")
	}
	for _, existing := range r.resources {
		if existing.resource.URI == res.URI {
			return fmt.Errorf("resource %s is already registered", res.URI)
		}
	}
	r.resources = append(r.resources, resourceEntry{resource: res, handler: h})
	return nil
}

// Attach registers the whole catalog with an MCP server. Every tool handler
// goes through the dispatch chain.
func (r *Registry) Attach(s *server.MCPServer) {
	tools := make([]server.ServerTool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		tools = append(tools, server.ServerTool{Tool: t.mcp, Handler: r.toolHandler(t)})
	}
	s.AddTools(tools...)

	for _, p := range r.prompts {
		s.AddPrompt(p.prompt, p.handler)
	}
	for _, res := range r.resources {
		s.AddResource(res.resource, res.handler)
	}
}

// toolHandler adapts the dispatch chain to the MCP handler signature.
func (r *Registry) toolHandler(t *Tool) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return r.Dispatch(ctx, t.Name, callArguments(req)), nil
	}
}

// callArguments extracts the argument map from an MCP request.
func callArguments(req mcp.CallToolRequest) map[string]interface{} {
	args := make(map[string]interface{})
	if req.Params.Arguments != nil {
		if m, ok := req.Params.Arguments.(map[string]interface{}); ok {
			args = m
		}
	}
	return args
}

// Counts returns the catalog sizes for capability cards.
func (r *Registry) Counts() (tools, prompts, resources int) {
	return len(r.tools), len(r.prompts), len(r.resources)
}

// ToolNames returns the registered tool names in registration order.
func (r *Registry) ToolNames() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}
