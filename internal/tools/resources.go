package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"lanonasis-gateway/internal/registry"
)

const (
	apiReferenceURI  = "lanonasis://docs/api-reference"
	currentConfigURI = "lanonasis://config/current"
)

// registerResources must run after the tool registrars: the API reference
// document is rendered from whatever the registry holds at read time.
func registerResources(reg *registry.Registry, deps Deps) error {
	apiRef := mcp.Resource{
		URI:         apiReferenceURI,
		Name:        "API Reference",
		Description: "Reference for every tool this gateway exposes, including argument constraints.",
		MIMEType:    "text/markdown",
	}
	if err := reg.RegisterResource(apiRef, apiReferenceHandler(reg)); err != nil {
		return err
	}

	current := mcp.Resource{
		URI:         currentConfigURI,
		Name:        "Current Configuration",
		Description: "Active gateway configuration. Credential values are never included.",
		MIMEType:    "application/json",
	}
	return reg.RegisterResource(current, currentConfigHandler(deps))
}

func apiReferenceHandler(reg *registry.Registry) func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      apiReferenceURI,
				MIMEType: "text/markdown",
				Text:     renderAPIReference(reg.Descriptors()),
			},
		}, nil
	}
}

func renderAPIReference(descriptors []registry.Descriptor) string {
	var b strings.Builder
	b.WriteString("# Lanonasis MCP Gateway Tools\n\n")
	fmt.Fprintf(&b, "%d tools. Arguments are validated strictly; unknown fields are rejected.\n", len(descriptors))

	for _, d := range descriptors {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", d.Name, d.Description)
		if notes := annotationNotes(d); notes != "" {
			fmt.Fprintf(&b, "\n%s\n", notes)
		}
		if len(d.Fields) == 0 {
			b.WriteString("\nNo arguments.\n")
			continue
		}
		b.WriteString("\nArguments:\n")
		for _, f := range d.Fields {
			b.WriteString(renderField(f))
		}
	}
	return b.String()
}

func annotationNotes(d registry.Descriptor) string {
	var notes []string
	if d.ReadOnly {
		notes = append(notes, "read-only")
	}
	if d.Destructive {
		notes = append(notes, "destructive")
	}
	if d.Idempotent {
		notes = append(notes, "idempotent")
	}
	if d.OpenWorld {
		notes = append(notes, "open-world")
	}
	notes = append(notes, "risk: "+d.RiskLevel)
	return strings.Join(notes, ", ")
}

func renderField(f registry.Field) string {
	typ := f.Type
	if typ == "" {
		typ = "any"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- `%s` (%s", f.Name, typ)
	if f.Required {
		b.WriteString(", required")
	}
	b.WriteString(")")
	if f.Description != "" {
		b.WriteString(": " + f.Description)
	}
	if f.Default != nil {
		fmt.Fprintf(&b, " (default %v)", f.Default)
	}
	b.WriteString("\n")
	return b.String()
}

func currentConfigHandler(deps Deps) func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		cfg := deps.Config
		doc := map[string]interface{}{
			"version":          deps.Version,
			"mode":             string(cfg.Mode),
			"port":             cfg.Port,
			"logLevel":         cfg.LogLevel,
			"logFormat":        cfg.LogFormat,
			"apiBaseUrl":       cfg.APIBaseURL,
			"functionsBaseUrl": cfg.FunctionsBaseURL,
			"requestTimeoutMs": cfg.RequestTimeout.Milliseconds(),
			"maxRetries":       cfg.MaxRetries,
			"retryBaseDelayMs": cfg.RetryBaseDelay.Milliseconds(),
			"warmupIntervalMs": cfg.WarmupInterval.Milliseconds(),
			"hasCredentials":   cfg.HasCredentials(),
		}
		body, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      currentConfigURI,
				MIMEType: "application/json",
				Text:     string(body),
			},
		}, nil
	}
}
