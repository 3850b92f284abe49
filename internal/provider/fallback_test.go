package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyProvider fails every call with a transport-style error and counts
// how often it was asked.
type flakyProvider struct {
	calls int
	err   error
}

func (f *flakyProvider) bump() error {
	f.calls++
	return f.err
}

func (f *flakyProvider) Quote(ctx context.Context, ticker string) (*Quote, error) {
	return nil, f.bump()
}

func (f *flakyProvider) OptionChain(ctx context.Context, ticker string, expiration time.Time) (*OptionChain, error) {
	return nil, f.bump()
}

func (f *flakyProvider) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	return nil, f.bump()
}

func (f *flakyProvider) HistoricalTicks(ctx context.Context, contract Contract, lookback int) ([]Tick, error) {
	return nil, f.bump()
}

func (f *flakyProvider) PriceHistory(ctx context.Context, ticker string, period time.Duration) ([]PriceBar, error) {
	return nil, f.bump()
}

func (f *flakyProvider) News(ctx context.Context, ticker string) ([]NewsItem, error) {
	return nil, f.bump()
}

func (f *flakyProvider) InsiderTransactions(ctx context.Context, ticker string, window time.Duration) ([]InsiderTransaction, error) {
	return nil, f.bump()
}

func TestNewFallbackChain_RequiresProviders(t *testing.T) {
	_, err := NewFallbackChain()
	assert.Error(t, err)
}

func TestFallbackChain_FirstProviderAnswers(t *testing.T) {
	primary := NewStubProvider()
	primary.SetQuote(&Quote{Ticker: "SPY", Price: 450})
	secondary := &flakyProvider{err: errors.New("should not be reached")}

	chain, err := NewFallbackChain(primary, secondary)
	require.NoError(t, err)

	quote, err := chain.Quote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, 450.0, quote.Price)
	assert.Zero(t, secondary.calls)
}

func TestFallbackChain_FallsThroughTransportErrors(t *testing.T) {
	primary := &flakyProvider{err: errors.New("connection reset")}
	secondary := NewStubProvider()
	secondary.SetQuote(&Quote{Ticker: "SPY", Price: 451})

	chain, err := NewFallbackChain(primary, secondary)
	require.NoError(t, err)

	quote, err := chain.Quote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, 451.0, quote.Price)
	assert.Equal(t, 1, primary.calls)
}

func TestFallbackChain_DataUnavailableEndsChain(t *testing.T) {
	// The primary knows the symbol has no data; asking another vendor
	// would just produce an inconsistent answer.
	primary := NewStubProvider()
	secondary := &flakyProvider{err: errors.New("should not be reached")}

	chain, err := NewFallbackChain(primary, secondary)
	require.NoError(t, err)

	_, err = chain.Quote(context.Background(), "GHOST")
	require.Error(t, err)
	assert.True(t, IsDataUnavailable(err))
	assert.Zero(t, secondary.calls)
}

func TestFallbackChain_AllFailWrapsLastError(t *testing.T) {
	boom := errors.New("boom")
	chain, err := NewFallbackChain(
		&flakyProvider{err: errors.New("first down")},
		&flakyProvider{err: boom},
	)
	require.NoError(t, err)

	_, err = chain.Expirations(context.Background(), "SPY")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "all providers failed for expirations")
}
