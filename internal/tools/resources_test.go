package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanonasis-gateway/internal/config"
)

func TestAPIReferenceResourceListsEveryTool(t *testing.T) {
	reg, _ := newGateway(t, okUpstream(nil))

	handler := apiReferenceHandler(reg)
	contents, err := handler(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, apiReferenceURI, text.URI)
	assert.Equal(t, "text/markdown", text.MIMEType)

	for _, name := range reg.ToolNames() {
		assert.Contains(t, text.Text, "## "+name)
	}
	assert.Contains(t, text.Text, "risk: high")
	assert.Contains(t, text.Text, "`limit` (integer)")
	assert.Contains(t, text.Text, "required")
}

func TestCurrentConfigResourceExcludesCredentials(t *testing.T) {
	cfg := &config.Config{
		Mode:             config.ModeHTTP,
		Port:             9090,
		LogLevel:         "info",
		LogFormat:        "machine",
		APIBaseURL:       "https://api.lanonasis.com",
		FunctionsBaseURL: "https://fn.lanonasis.com",
		APIKey:           "sk_live_supersecret",
		BearerToken:      "bearer_supersecret",
		RequestTimeout:   config.DefaultRequestTimeout,
		MaxRetries:       3,
		RetryBaseDelay:   config.DefaultRetryBaseDelay,
		WarmupInterval:   config.DefaultWarmupInterval,
	}

	handler := currentConfigHandler(Deps{Config: cfg, Version: "2.1.0"})
	contents, err := handler(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, currentConfigURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	assert.NotContains(t, text.Text, "sk_live_supersecret")
	assert.NotContains(t, text.Text, "bearer_supersecret")

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
	assert.Equal(t, "http", doc["mode"])
	assert.Equal(t, float64(9090), doc["port"])
	assert.Equal(t, float64(30000), doc["requestTimeoutMs"])
	assert.Equal(t, true, doc["hasCredentials"])
}
