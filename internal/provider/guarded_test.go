package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// permissiveGuardConfig keeps the limiter out of the way so tests
// exercise only the breaker.
func permissiveGuardConfig() GuardConfig {
	cfg := DefaultGuardConfig()
	cfg.RequestsPerSecond = 10_000
	cfg.Burst = 10_000
	return cfg
}

func TestGuardedProvider_PassesThrough(t *testing.T) {
	inner := NewStubProvider()
	inner.SetQuote(&Quote{Ticker: "SPY", Price: 450})

	guarded := NewGuardedProvider(inner, permissiveGuardConfig())

	quote, err := guarded.Quote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, 450.0, quote.Price)
}

func TestGuardedProvider_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyProvider{err: errors.New("connection reset")}
	cfg := permissiveGuardConfig()
	cfg.FailureThreshold = 3

	guarded := NewGuardedProvider(inner, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := guarded.Quote(ctx, "SPY")
		require.Error(t, err)
		assert.False(t, IsDataUnavailable(err), "transport errors surface as-is before the trip")
	}

	// The breaker is now open: calls fail fast without touching the
	// provider, mapped to data-unavailable so scans soft-skip.
	before := inner.calls
	_, err := guarded.Quote(ctx, "SPY")
	require.Error(t, err)
	assert.True(t, IsDataUnavailable(err))
	assert.Equal(t, before, inner.calls)
}

func TestGuardedProvider_DataUnavailableDoesNotTrip(t *testing.T) {
	inner := NewStubProvider() // empty stub: every call is a clean miss
	cfg := permissiveGuardConfig()
	cfg.FailureThreshold = 3

	guarded := NewGuardedProvider(inner, cfg)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := guarded.Quote(ctx, "GHOST")
		require.Error(t, err)
		assert.True(t, IsDataUnavailable(err), "misses never open the breaker")
	}
}

func TestGuardedProvider_InstrumentCountsFailuresByOp(t *testing.T) {
	inner := &flakyProvider{err: errors.New("connection reset")}
	cfg := permissiveGuardConfig()
	cfg.FailureThreshold = 3

	guarded := NewGuardedProvider(inner, cfg)
	failures := map[string]int{}
	guarded.Instrument(func(op string) { failures[op]++ })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := guarded.Quote(ctx, "SPY")
		require.Error(t, err)
	}
	// Fast-fail against the open breaker counts too.
	_, err := guarded.Quote(ctx, "SPY")
	require.Error(t, err)

	assert.Equal(t, 4, failures["quote"])
}

func TestGuardedProvider_InstrumentIgnoresDataUnavailable(t *testing.T) {
	inner := NewStubProvider() // empty stub: every call is a clean miss
	guarded := NewGuardedProvider(inner, permissiveGuardConfig())
	failures := 0
	guarded.Instrument(func(string) { failures++ })

	for i := 0; i < 5; i++ {
		_, err := guarded.Quote(context.Background(), "GHOST")
		require.Error(t, err)
	}
	assert.Zero(t, failures, "missing data is not a provider failure")
}

func TestGuardedProvider_CancelledWaitIsDataUnavailable(t *testing.T) {
	inner := NewStubProvider()
	inner.SetQuote(&Quote{Ticker: "SPY", Price: 450})

	cfg := DefaultGuardConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1

	guarded := NewGuardedProvider(inner, cfg)
	ctx := context.Background()

	// First call drains the single burst token.
	_, err := guarded.Quote(ctx, "SPY")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = guarded.Quote(waitCtx, "SPY")
	require.Error(t, err)
	assert.True(t, IsDataUnavailable(err))
}
