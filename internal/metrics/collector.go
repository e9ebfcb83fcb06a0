package metrics

import (
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"

	"lanonasis-gateway/internal/cache"
	"lanonasis-gateway/internal/resilience"
)

const namespace = "lanonasis_gateway"

// Breaker states as gauge values.
var breakerStateValues = map[string]float64{
	resilience.StateClosed:   0,
	resilience.StateHalfOpen: 1,
	resilience.StateOpen:     2,
}

// Collector renders live gateway state as Prometheus const metrics. Register
// it on a dedicated registry and serve with promhttp.HandlerFor.
type Collector struct {
	recorder *Recorder
	breakers *resilience.Registry
	caches   *cache.Manager

	info            *prometheus.Desc
	uptime          *prometheus.Desc
	memory          *prometheus.Desc
	requestsTotal   *prometheus.Desc
	errorsTotal     *prometheus.Desc
	toolRequests    *prometheus.Desc
	toolErrors      *prometheus.Desc
	duration        *prometheus.Desc
	breakerState    *prometheus.Desc
	breakerFailures *prometheus.Desc
	cacheSize       *prometheus.Desc
	cacheHits       *prometheus.Desc
	cacheMisses     *prometheus.Desc
}

// NewCollector wires the collector to the gateway's live state.
func NewCollector(recorder *Recorder, breakers *resilience.Registry, caches *cache.Manager) *Collector {
	return &Collector{
		recorder: recorder,
		breakers: breakers,
		caches:   caches,

		info: prometheus.NewDesc(namespace+"_info",
			"Gateway build information.", []string{"version"}, nil),
		uptime: prometheus.NewDesc(namespace+"_uptime_seconds",
			"Seconds since the gateway started.", nil, nil),
		memory: prometheus.NewDesc(namespace+"_memory_bytes",
			"Process memory usage by class.", []string{"type"}, nil),
		requestsTotal: prometheus.NewDesc(namespace+"_requests_total",
			"Tool calls dispatched.", nil, nil),
		errorsTotal: prometheus.NewDesc(namespace+"_errors_total",
			"Tool calls that returned an error.", nil, nil),
		toolRequests: prometheus.NewDesc(namespace+"_tool_requests_total",
			"Tool calls dispatched per tool.", []string{"tool"}, nil),
		toolErrors: prometheus.NewDesc(namespace+"_tool_errors_total",
			"Errored tool calls per tool.", []string{"tool"}, nil),
		duration: prometheus.NewDesc(namespace+"_request_duration_ms",
			"Tool call duration over the recent window, milliseconds.", nil, nil),
		breakerState: prometheus.NewDesc(namespace+"_circuit_breaker_state",
			"Breaker state: 0 closed, 1 half-open, 2 open.", []string{"upstream"}, nil),
		breakerFailures: prometheus.NewDesc(namespace+"_circuit_breaker_failures_total",
			"Lifetime breaker failures per upstream.", []string{"upstream"}, nil),
		cacheSize: prometheus.NewDesc(namespace+"_cache_size",
			"Live entries per cache.", []string{"cache"}, nil),
		cacheHits: prometheus.NewDesc(namespace+"_cache_hits_total",
			"Cache hits per cache.", []string{"cache"}, nil),
		cacheMisses: prometheus.NewDesc(namespace+"_cache_misses_total",
			"Cache misses per cache.", []string{"cache"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.info
	ch <- c.uptime
	ch <- c.memory
	ch <- c.requestsTotal
	ch <- c.errorsTotal
	ch <- c.toolRequests
	ch <- c.toolErrors
	ch <- c.duration
	ch <- c.breakerState
	ch <- c.breakerFailures
	ch <- c.cacheSize
	ch <- c.cacheHits
	ch <- c.cacheMisses
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1, c.recorder.Version())
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.CounterValue, c.recorder.Uptime().Seconds())

	for class, bytes := range memoryByClass() {
		ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, float64(bytes), class)
	}

	stats := c.recorder.RequestStats()
	ch <- prometheus.MustNewConstMetric(c.requestsTotal, prometheus.CounterValue, float64(stats.Total))
	ch <- prometheus.MustNewConstMetric(c.errorsTotal, prometheus.CounterValue, float64(stats.Errors))
	for tool, ts := range stats.PerTool {
		ch <- prometheus.MustNewConstMetric(c.toolRequests, prometheus.CounterValue, float64(ts.Requests), tool)
		ch <- prometheus.MustNewConstMetric(c.toolErrors, prometheus.CounterValue, float64(ts.Errors), tool)
	}

	d := stats.Durations
	ch <- prometheus.MustNewConstSummary(c.duration,
		uint64(d.Count), d.AverageMs*float64(d.Count),
		map[float64]float64{0.5: d.P50Ms, 0.95: d.P95Ms, 0.99: d.P99Ms})

	for _, snap := range c.breakers.Snapshots() {
		ch <- prometheus.MustNewConstMetric(c.breakerState, prometheus.GaugeValue,
			breakerStateValues[snap.State], snap.Name)
		ch <- prometheus.MustNewConstMetric(c.breakerFailures, prometheus.CounterValue,
			float64(snap.TotalFailures), snap.Name)
	}

	for _, cs := range c.caches.AllStats() {
		ch <- prometheus.MustNewConstMetric(c.cacheSize, prometheus.GaugeValue, float64(cs.Size), cs.Name)
		ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(cs.Hits), cs.Name)
		ch <- prometheus.MustNewConstMetric(c.cacheMisses, prometheus.CounterValue, float64(cs.Misses), cs.Name)
	}
}

// memoryByClass maps runtime.MemStats onto the four reported memory classes.
func memoryByClass() map[string]uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return map[string]uint64{
		"rss":        m.Sys,
		"heap_total": m.HeapSys,
		"heap_used":  m.HeapAlloc,
		"external":   m.Sys - m.HeapSys,
	}
}

// ServerInfo is the runtime identity block of the JSON snapshot.
type ServerInfo struct {
	Version       string  `json:"version"`
	PID           int     `json:"pid"`
	GoVersion     string  `json:"goVersion"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// MemoryInfo reports process memory in bytes by class.
type MemoryInfo struct {
	RSS       uint64 `json:"rss"`
	HeapTotal uint64 `json:"heapTotal"`
	HeapUsed  uint64 `json:"heapUsed"`
	External  uint64 `json:"external"`
}

// Snapshot is the JSON mirror of everything the Prometheus exposition
// carries.
type Snapshot struct {
	Server          ServerInfo            `json:"server"`
	Requests        RequestStats          `json:"requests"`
	CircuitBreakers []resilience.Snapshot `json:"circuitBreakers"`
	Caches          []cache.Stats         `json:"caches"`
	Memory          MemoryInfo            `json:"memory"`
}

// Snapshot assembles the JSON view from the same live state Collect reads.
func (c *Collector) Snapshot() Snapshot {
	mem := memoryByClass()
	return Snapshot{
		Server: ServerInfo{
			Version:       c.recorder.Version(),
			PID:           os.Getpid(),
			GoVersion:     runtime.Version(),
			UptimeSeconds: c.recorder.Uptime().Seconds(),
		},
		Requests:        c.recorder.RequestStats(),
		CircuitBreakers: c.breakers.Snapshots(),
		Caches:          c.caches.AllStats(),
		Memory: MemoryInfo{
			RSS:       mem["rss"],
			HeapTotal: mem["heap_total"],
			HeapUsed:  mem["heap_used"],
			External:  mem["external"],
		},
	}
}
