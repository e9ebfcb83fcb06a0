// Package metrics tracks gateway request activity and exposes it two ways:
// a prometheus.Collector for the text exposition and a JSON snapshot for the
// health surface. Collection reads live state; nothing is precomputed on a
// schedule.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// sampleWindow is how many recent request durations feed the quantiles.
const sampleWindow = 1000

// Recorder accumulates request counts and a sliding window of durations.
// Safe for concurrent use.
type Recorder struct {
	version string
	started time.Time

	mu            sync.Mutex
	totalRequests uint64
	totalErrors   uint64
	perTool       map[string]*toolCounters
	durations     ring
}

type toolCounters struct {
	requests uint64
	errors   uint64
}

// NewRecorder starts the uptime clock.
func NewRecorder(version string) *Recorder {
	return &Recorder{
		version: version,
		started: time.Now(),
		perTool: make(map[string]*toolCounters),
	}
}

// Version returns the build version the recorder reports.
func (r *Recorder) Version() string { return r.version }

// Uptime returns how long the recorder has been alive.
func (r *Recorder) Uptime() time.Duration { return time.Since(r.started) }

// RecordToolCall counts one dispatched tool call and its duration. failed
// marks calls that produced an error result.
func (r *Recorder) RecordToolCall(tool string, duration time.Duration, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalRequests++
	counters := r.perTool[tool]
	if counters == nil {
		counters = &toolCounters{}
		r.perTool[tool] = counters
	}
	counters.requests++
	if failed {
		r.totalErrors++
		counters.errors++
	}
	r.durations.add(float64(duration) / float64(time.Millisecond))
}

// ToolStats is the per-tool counter pair.
type ToolStats struct {
	Requests uint64 `json:"requests"`
	Errors   uint64 `json:"errors"`
}

// DurationStats summarizes the recent duration window in milliseconds.
type DurationStats struct {
	Count     int     `json:"count"`
	AverageMs float64 `json:"averageMs"`
	P50Ms     float64 `json:"p50Ms"`
	P95Ms     float64 `json:"p95Ms"`
	P99Ms     float64 `json:"p99Ms"`
}

// RequestStats is a point-in-time view of the counters.
type RequestStats struct {
	Total     uint64               `json:"total"`
	Errors    uint64               `json:"errors"`
	Durations DurationStats        `json:"durations"`
	PerTool   map[string]ToolStats `json:"perTool"`
}

// RequestStats returns a copy of the live counters.
func (r *Recorder) RequestStats() RequestStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	perTool := make(map[string]ToolStats, len(r.perTool))
	for name, c := range r.perTool {
		perTool[name] = ToolStats{Requests: c.requests, Errors: c.errors}
	}
	samples := r.durations.snapshot()
	return RequestStats{
		Total:     r.totalRequests,
		Errors:    r.totalErrors,
		Durations: summarize(samples),
		PerTool:   perTool,
	}
}

// ring is a fixed-size overwrite buffer of duration samples.
type ring struct {
	samples [sampleWindow]float64
	n       int
}

func (r *ring) add(v float64) {
	r.samples[r.n%sampleWindow] = v
	r.n++
}

func (r *ring) snapshot() []float64 {
	size := r.n
	if size > sampleWindow {
		size = sampleWindow
	}
	out := make([]float64, size)
	copy(out, r.samples[:size])
	return out
}

// summarize computes the window average and quantiles.
func summarize(samples []float64) DurationStats {
	stats := DurationStats{Count: len(samples)}
	if len(samples) == 0 {
		return stats
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	stats.AverageMs = sum / float64(len(sorted))
	stats.P50Ms = quantile(sorted, 0.5)
	stats.P95Ms = quantile(sorted, 0.95)
	stats.P99Ms = quantile(sorted, 0.99)
	return stats
}

// quantile reads the q-th quantile from an ascending slice using the
// nearest-rank index.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Round(q * float64(len(sorted)-1)))
	return sorted[idx]
}
