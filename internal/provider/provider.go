// Package provider defines the market data interface consumed by the
// scanning and discovery engines, plus a guarded wrapper that applies
// rate limiting and circuit breaking to a concrete implementation.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrDataUnavailable signals that the provider has no data for the
// requested symbol or contract. Callers treat it as a soft failure:
// skip the unit of work and continue the batch.
var ErrDataUnavailable = errors.New("market data unavailable")

// IsDataUnavailable reports whether err represents missing market data.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// Provider supplies quotes, option chains, ticks, price history, news and
// insider activity. Implementations wrap vendor APIs and are expected to
// be safe for concurrent use.
type Provider interface {
	// Quote returns the current underlying snapshot for a ticker.
	Quote(ctx context.Context, ticker string) (*Quote, error)

	// OptionChain returns both sides of the chain for one expiration.
	OptionChain(ctx context.Context, ticker string, expiration time.Time) (*OptionChain, error)

	// Expirations lists available expirations, nearest first.
	Expirations(ctx context.Context, ticker string) ([]time.Time, error)

	// HistoricalTicks returns up to lookback recent trade prints for a
	// contract, oldest first.
	HistoricalTicks(ctx context.Context, contract Contract, lookback int) ([]Tick, error)

	// PriceHistory returns daily OHLCV bars covering the trailing period.
	PriceHistory(ctx context.Context, ticker string, period time.Duration) ([]PriceBar, error)

	// News returns recent headlines for a ticker, newest first.
	News(ctx context.Context, ticker string) ([]NewsItem, error)

	// InsiderTransactions returns insider buys/sells within the window.
	InsiderTransactions(ctx context.Context, ticker string, window time.Duration) ([]InsiderTransaction, error)
}
