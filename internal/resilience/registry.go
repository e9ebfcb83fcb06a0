package resilience

import (
	"sort"
	"sync"
	"time"
)

// Names of the two preconfigured breakers.
const (
	BreakerAPI           = "api"
	BreakerEdgeFunctions = "edgeFunctions"
)

// DefaultSettings applies to breakers created for names without a preset.
var DefaultSettings = Settings{
	FailureThreshold: 5,
	ResetTimeout:     30 * time.Second,
	SuccessThreshold: 2,
}

// presets carry the per-upstream defaults. The functions domain can take
// noticeably longer to recover from a cold start, so its breaker trips
// earlier and stays open longer.
var presets = map[string]Settings{
	BreakerAPI: DefaultSettings,
	BreakerEdgeFunctions: {
		FailureThreshold: 3,
		ResetTimeout:     45 * time.Second,
		SuccessThreshold: 2,
	},
}

// Registry owns the process-wide set of circuit breakers, keyed by upstream
// name. Breakers are created lazily on first use and never destroyed.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	presets  map[string]Settings
	now      func() time.Time
}

// NewRegistry creates a registry with the standard per-upstream presets.
func NewRegistry() *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		presets:  presets,
		now:      time.Now,
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	settings, ok := r.presets[name]
	if !ok {
		settings = DefaultSettings
	}
	b = newBreaker(name, settings, r.now)
	r.breakers[name] = b
	return b
}

// Execute runs work under the named breaker.
func (r *Registry) Execute(name string, work func() (interface{}, error)) (interface{}, error) {
	return r.Get(name).Execute(work)
}

// ResetAll returns every breaker to CLOSED. Lifetime totals are preserved.
func (r *Registry) ResetAll() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.breakers {
		b.Reset()
	}
	return len(r.breakers)
}

// Snapshots returns a point-in-time view of every breaker, sorted by name.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
