package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanonasis-gateway/internal/gwerrors"
)

func testSettings() Settings {
	return Settings{
		FailureThreshold: 3,
		ResetTimeout:     50 * time.Millisecond,
		SuccessThreshold: 2,
	}
}

func failN(b *Breaker, n int) {
	for i := 0; i < n; i++ {
		_, _ = b.Execute(func() (interface{}, error) {
			return nil, errors.New("upstream failure")
		})
	}
}

func succeed(b *Breaker) error {
	_, err := b.Execute(func() (interface{}, error) { return "ok", nil })
	return err
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := newBreaker("api", testSettings(), time.Now)

	for i := 0; i < 10; i++ {
		require.NoError(t, succeed(b))
	}
	assert.Equal(t, StateClosed, b.State())

	snap := b.Snapshot()
	assert.Equal(t, uint64(10), snap.TotalRequests)
	assert.Equal(t, uint64(10), snap.TotalSuccesses)
	assert.False(t, snap.LastSuccess.IsZero())
	assert.True(t, snap.LastFailure.IsZero())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := newBreaker("api", testSettings(), time.Now)
	before := time.Now()

	failN(b, 3)
	assert.Equal(t, StateOpen, b.State())

	var invoked atomic.Bool
	_, err := b.Execute(func() (interface{}, error) {
		invoked.Store(true)
		return "ok", nil
	})
	require.Error(t, err)
	assert.False(t, invoked.Load(), "open breaker must not invoke work")

	var gwErr *gwerrors.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, gwerrors.KindCircuitOpen, gwErr.Kind)
	assert.True(t, gwErr.NextAttempt.After(before), "next attempt should be in the future")

	snap := b.Snapshot()
	assert.Equal(t, uint64(3), snap.TotalFailures)
	assert.Equal(t, uint64(1), snap.TotalRejections)
	assert.False(t, snap.NextAttempt.IsZero())
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	b := newBreaker("api", testSettings(), time.Now)

	failN(b, 2)
	require.NoError(t, succeed(b))
	failN(b, 2)

	// Five failures total, but never three in a row.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := newBreaker("api", testSettings(), time.Now)

	failN(b, 3)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(60 * time.Millisecond)

	// The first admission past the deadline is the half-open probe.
	require.NoError(t, succeed(b))
	assert.Equal(t, StateHalfOpen, b.State())

	// One more consecutive success meets the threshold.
	require.NoError(t, succeed(b))
	assert.Equal(t, StateClosed, b.State())

	snap := b.Snapshot()
	assert.True(t, snap.NextAttempt.IsZero(), "closed breaker carries no next-attempt deadline")
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := newBreaker("api", testSettings(), time.Now)

	failN(b, 3)
	time.Sleep(60 * time.Millisecond)

	failN(b, 1)
	assert.Equal(t, StateOpen, b.State())

	_, err := b.Execute(func() (interface{}, error) { return nil, nil })
	var gwErr *gwerrors.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, gwerrors.KindCircuitOpen, gwErr.Kind)
}

func TestBreakerResetClosesAndKeepsTotals(t *testing.T) {
	b := newBreaker("api", testSettings(), time.Now)

	failN(b, 3)
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	require.NoError(t, succeed(b))

	snap := b.Snapshot()
	assert.Equal(t, uint64(3), snap.TotalFailures, "reset must not erase lifetime totals")
	assert.Equal(t, uint64(4), snap.TotalRequests)
}

func TestBreakerPassesThroughWorkErrors(t *testing.T) {
	b := newBreaker("api", testSettings(), time.Now)

	cause := gwerrors.Unavailable("upstream unreachable", errors.New("connection refused"))
	_, err := b.Execute(func() (interface{}, error) { return nil, cause })

	var gwErr *gwerrors.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, gwerrors.KindUnavailable, gwErr.Kind)
}

func TestBreakerConcurrentExecutes(t *testing.T) {
	b := newBreaker("api", Settings{FailureThreshold: 1000, ResetTimeout: time.Second, SuccessThreshold: 1}, time.Now)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = succeed(b)
			}
		}()
	}
	wg.Wait()

	snap := b.Snapshot()
	assert.Equal(t, uint64(800), snap.TotalRequests)
	assert.Equal(t, uint64(800), snap.TotalSuccesses)
}

func TestRegistryLazyCreationAndPresets(t *testing.T) {
	r := NewRegistry()

	api := r.Get(BreakerAPI)
	assert.Equal(t, uint32(5), api.settings.FailureThreshold)
	assert.Equal(t, 30*time.Second, api.settings.ResetTimeout)

	edge := r.Get(BreakerEdgeFunctions)
	assert.Equal(t, uint32(3), edge.settings.FailureThreshold)
	assert.Equal(t, 45*time.Second, edge.settings.ResetTimeout)
	assert.Greater(t, edge.settings.ResetTimeout, api.settings.ResetTimeout)
	assert.Less(t, edge.settings.FailureThreshold, api.settings.FailureThreshold)

	other := r.Get("search")
	assert.Equal(t, DefaultSettings.FailureThreshold, other.settings.FailureThreshold)

	assert.Same(t, api, r.Get(BreakerAPI), "breakers are created once per name")
}

func TestRegistryResetAll(t *testing.T) {
	r := NewRegistry()
	r.breakers[BreakerAPI] = newBreaker(BreakerAPI, testSettings(), time.Now)
	r.breakers["search"] = newBreaker("search", testSettings(), time.Now)

	failN(r.Get(BreakerAPI), 3)
	failN(r.Get("search"), 3)
	require.Equal(t, StateOpen, r.Get(BreakerAPI).State())

	count := r.ResetAll()
	assert.Equal(t, 2, count)
	assert.Equal(t, StateClosed, r.Get(BreakerAPI).State())
	assert.Equal(t, StateClosed, r.Get("search").State())
}

func TestRegistrySnapshotsSorted(t *testing.T) {
	r := NewRegistry()
	r.Get(BreakerEdgeFunctions)
	r.Get(BreakerAPI)
	r.Get("search")

	snaps := r.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, BreakerAPI, snaps[0].Name)
	assert.Equal(t, BreakerEdgeFunctions, snaps[1].Name)
	assert.Equal(t, "search", snaps[2].Name)
	for _, s := range snaps {
		assert.Equal(t, StateClosed, s.State)
	}
}
