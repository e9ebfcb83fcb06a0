package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"lanonasis-gateway/pkg/logging"
)

// Cache names accepted by the admin clear endpoint.
const (
	MemoryListCache = "memoryList"
	StatsCache      = "stats"
)

// Key prefixes for the two cached read families. Write paths invalidate by
// prefix so stale lists never outlive a mutation.
const (
	memoryListKeyPrefix = "memories:list:"
	statsKeyPrefix      = "stats:"

	memoryListPattern = "^memories:list:"
	statsPattern      = "^stats:"
)

const (
	memoryListMaxSize = 100
	memoryListTTL     = 30 * time.Second
	statsMaxSize      = 20
	statsTTL          = 60 * time.Second
)

// Payload is the cached shape for upstream read responses, a decoded JSON
// document.
type Payload = map[string]interface{}

// Manager owns the gateway's named caches and the cross-cache operations the
// admin and metrics surfaces need.
type Manager struct {
	memoryList *Cache[Payload]
	stats      *Cache[Payload]
}

// NewManager builds the memory list and statistics caches with their fixed
// capacities and TTLs.
func NewManager() *Manager {
	return &Manager{
		memoryList: New[Payload](MemoryListCache, memoryListMaxSize, memoryListTTL),
		stats:      New[Payload](StatsCache, statsMaxSize, statsTTL),
	}
}

// MemoryList returns the cache for memory list and search reads.
func (m *Manager) MemoryList() *Cache[Payload] { return m.memoryList }

// Stats returns the cache for memory statistics reads.
func (m *Manager) Stats() *Cache[Payload] { return m.stats }

// MemoryListKey builds the canonical cache key for a list or search request.
// Marshaling sorts map keys, so equal parameter sets share one key.
func MemoryListKey(params interface{}) string {
	return canonicalKey(memoryListKeyPrefix, params)
}

// StatsKey builds the canonical cache key for a statistics request.
func StatsKey(params interface{}) string {
	return canonicalKey(statsKeyPrefix, params)
}

func canonicalKey(prefix string, params interface{}) string {
	raw, err := json.Marshal(params)
	if err != nil {
		return prefix + fmt.Sprintf("%v", params)
	}
	return prefix + string(raw)
}

// InvalidateMemoryLists drops every cached memory list. Called after any
// memory mutation.
func (m *Manager) InvalidateMemoryLists() int {
	n, _ := m.memoryList.InvalidatePattern(memoryListPattern)
	if n > 0 {
		logging.Debug("Cache", "Invalidated %d memory list entries", n)
	}
	return n
}

// InvalidateStats drops every cached statistics entry. Called after
// mutations that change memory counts.
func (m *Manager) InvalidateStats() int {
	n, _ := m.stats.InvalidatePattern(statsPattern)
	if n > 0 {
		logging.Debug("Cache", "Invalidated %d stats entries", n)
	}
	return n
}

// Clear empties the named cache, or every cache when name is "all", and
// returns the number of entries dropped.
func (m *Manager) Clear(name string) (int, error) {
	switch name {
	case "", "all":
		return m.memoryList.Clear() + m.stats.Clear(), nil
	case MemoryListCache:
		return m.memoryList.Clear(), nil
	case StatsCache:
		return m.stats.Clear(), nil
	default:
		return 0, fmt.Errorf("unknown cache %q", name)
	}
}

// AllStats returns per-cache statistics in a stable order.
func (m *Manager) AllStats() []Stats {
	return []Stats{m.memoryList.Stats(), m.stats.Stats()}
}

// Stop terminates the background expiry loops of all caches.
func (m *Manager) Stop() {
	m.memoryList.Stop()
	m.stats.Stop()
}
