package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/requestid"
	"lanonasis-gateway/internal/sanitize"
	"lanonasis-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// unknownTool is the metrics label for calls that name no registered tool,
// keeping per-tool series cardinality bounded.
const unknownTool = "unknown"

// Dispatch runs one tool call through the full chain. It never returns a Go
// error: every failure is serialized as a structured error payload so clients
// see exactly one normalized error object per call.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]interface{}) *mcp.CallToolResult {
	start := time.Now()
	ctx, requestID := requestid.Ensure(ctx)

	t, ok := r.tools[name]
	if !ok {
		return r.fail(unknownTool, requestID, start, gwerrors.Validation(fmt.Sprintf("unknown tool %q", name)))
	}

	if gwErr := t.validateArgs(args); gwErr != nil {
		return r.fail(name, requestID, start, gwErr)
	}

	cleaned, gwErr := sanitize.Scrub(args)
	if gwErr != nil {
		return r.fail(name, requestID, start, gwErr)
	}

	out, err := t.handler(ctx, cleaned)
	if err != nil {
		return r.fail(name, requestID, start, gwerrors.Normalize(err))
	}

	body, err := json.Marshal(out)
	if err != nil {
		return r.fail(name, requestID, start, gwerrors.Internal("encode tool result", err))
	}

	r.recorder.RecordToolCall(name, time.Since(start), false)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(body))},
	}
}

// fail records the failed call, logs it at a severity matching its kind, and
// serializes the error payload.
func (r *Registry) fail(tool, requestID string, start time.Time, gwErr *gwerrors.Error) *mcp.CallToolResult {
	stamped := gwErr.WithRequestID(requestID)

	if stamped.HTTPStatus() >= 500 {
		logging.Error("Dispatcher", stamped.Err, "Tool %s failed: %s", tool, stamped.Message)
	} else {
		logging.Warn("Dispatcher", "Tool %s rejected: %s", tool, stamped.Message)
	}

	r.recorder.RecordToolCall(tool, time.Since(start), true)

	body, _ := json.Marshal(stamped.Payload())
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(body))},
		IsError: true,
	}
}
