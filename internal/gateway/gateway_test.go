package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanonasis-gateway/internal/config"
	"lanonasis-gateway/internal/resilience"
)

// testConfig returns a runnable configuration that binds an ephemeral port
// and points both upstreams at a port nothing listens on.
func testConfig(mode config.Mode) config.Config {
	return config.Config{
		Mode:             mode,
		Port:             0,
		LogLevel:         "error",
		LogFormat:        "machine",
		APIBaseURL:       "http://127.0.0.1:1",
		FunctionsBaseURL: "http://127.0.0.1:1",
		RequestTimeout:   time.Second,
		MaxRetries:       0,
		RetryBaseDelay:   time.Millisecond,
		WarmupInterval:   time.Minute,
		AuthServerURL:    "http://127.0.0.1:1/auth",
		ResourceURL:      "http://localhost:0/mcp",
		ServerURL:        "http://localhost:0",
	}
}

func TestNewWiresTheFullCatalog(t *testing.T) {
	g, err := New(testConfig(config.ModeHTTP), "1.0.0-test")
	require.NoError(t, err)
	t.Cleanup(g.caches.Stop)

	toolCount, promptCount, resourceCount := g.registry.Counts()
	assert.Equal(t, 28, toolCount)
	assert.Equal(t, 3, promptCount)
	assert.Equal(t, 2, resourceCount)
	assert.NotNil(t, g.http)

	// Both upstream breakers exist, and report CLOSED, before any call.
	snaps := g.breakers.Snapshots()
	require.Len(t, snaps, 2)
	for _, s := range snaps {
		assert.Equal(t, "CLOSED", s.State)
	}
}

func TestNewSkipsHTTPSurfaceInStdioMode(t *testing.T) {
	g, err := New(testConfig(config.ModeStdio), "1.0.0-test")
	require.NoError(t, err)
	t.Cleanup(g.caches.Stop)

	assert.Nil(t, g.http)
	assert.NotNil(t, g.core)
}

func TestRunHTTPStopsWhenContextEnds(t *testing.T) {
	g, err := New(testConfig(config.ModeHTTP), "1.0.0-test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("gateway did not stop after context cancellation")
	}
}

func TestBreakerStateLine(t *testing.T) {
	tests := []struct {
		name  string
		snaps []resilience.Snapshot
		want  string
	}{
		{
			name:  "no breakers",
			snaps: nil,
			want:  "closed=0 half_open=0 open=0",
		},
		{
			name: "mixed states",
			snaps: []resilience.Snapshot{
				{Name: "api", State: "CLOSED"},
				{Name: "edgeFunctions", State: "OPEN"},
			},
			want: "closed=1 half_open=0 open=1",
		},
		{
			name: "half open counted",
			snaps: []resilience.Snapshot{
				{Name: "api", State: "HALF_OPEN"},
			},
			want: "closed=0 half_open=1 open=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, breakerStateLine(tt.snaps))
		})
	}
}
