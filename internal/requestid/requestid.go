// Package requestid carries the per-request correlation id through context.
// Every inbound request gets one, either echoed from the X-Request-Id header
// or minted at ingress, and it tags logs, upstream calls, and error payloads.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the correlation header echoed on every response.
const Header = "X-Request-Id"

type ctxKey struct{}

// With returns a context carrying the given correlation id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the correlation id in ctx, or "" when none is set.
func From(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Ensure returns ctx with a correlation id, minting a v4 UUID when absent.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := From(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return With(ctx, id), id
}
