// Package health probes the two upstreams and rolls their states into one
// gateway-level verdict. A probe that gets any HTTP response counts the
// upstream as reachable; only transport-level failures mark it unhealthy.
package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/internal/upstream"
	"lanonasis-gateway/pkg/logging"
)

// Status values for one upstream or the rollup.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// probeTimeout bounds one upstream probe, including its retries.
const probeTimeout = 5 * time.Second

// Probe is the outcome of checking one upstream.
type Probe struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	LatencyMs float64   `json:"latencyMs"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Report combines the per-upstream probes with the overall rollup.
type Report struct {
	Status    string    `json:"status"`
	Upstreams []Probe   `json:"upstreams"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Checker fans probes out to the primary API and the functions domain.
type Checker struct {
	clients []*upstream.Client
}

// NewChecker builds a checker over the given upstream clients.
func NewChecker(clients ...*upstream.Client) *Checker {
	return &Checker{clients: clients}
}

// Check probes every upstream concurrently and rolls the results up:
// all healthy means healthy, any unhealthy means unhealthy, anything else
// is degraded.
func (c *Checker) Check(ctx context.Context) Report {
	probes := make([]Probe, len(c.clients))
	var wg sync.WaitGroup
	for i, client := range c.clients {
		wg.Add(1)
		go func(i int, client *upstream.Client) {
			defer wg.Done()
			probes[i] = ProbeUpstream(ctx, client)
		}(i, client)
	}
	wg.Wait()

	return Report{
		Status:    rollup(probes),
		Upstreams: probes,
		CheckedAt: time.Now().UTC(),
	}
}

// ProbeUpstream issues one bounded health request against an upstream and
// grades the outcome.
func ProbeUpstream(ctx context.Context, client *upstream.Client) Probe {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	started := time.Now()
	_, err := client.Health(probeCtx)
	probe := Probe{
		Name:      client.Name(),
		Status:    StatusHealthy,
		LatencyMs: float64(time.Since(started)) / float64(time.Millisecond),
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		probe.Status = statusForError(err)
		probe.Error = err.Error()
	}
	return probe
}

// statusForError separates "upstream answered with an error" from "upstream
// did not answer at all".
func statusForError(err error) string {
	var gwErr *gwerrors.Error
	if errors.As(err, &gwErr) {
		switch gwErr.Kind {
		case gwerrors.KindTimeout, gwerrors.KindUnavailable, gwerrors.KindCircuitOpen:
			return StatusUnhealthy
		default:
			return StatusDegraded
		}
	}
	return StatusUnhealthy
}

func rollup(probes []Probe) string {
	status := StatusHealthy
	for _, p := range probes {
		switch p.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Warmup probes both upstreams immediately and then on every interval tick,
// keeping serverless cold starts off the request path. Probe failures are
// logged at debug and never influence reported health.
func (c *Checker) Warmup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report := c.Check(ctx)
		for _, p := range report.Upstreams {
			if p.Error != "" {
				logging.Debug("Health", "Warmup probe %s: %s (%s)", p.Name, p.Status, p.Error)
			} else {
				logging.Debug("Health", "Warmup probe %s: %s in %.1fms", p.Name, p.Status, p.LatencyMs)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
