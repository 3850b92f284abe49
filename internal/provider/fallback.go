package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FallbackChain tries each provider in order until one answers. A
// provider that reports data-unavailable ends the chain immediately:
// missing data is an answer, not an outage, and asking a secondary
// vendor for the same symbol would return inconsistent data.
type FallbackChain struct {
	providers []Provider
	logger    zerolog.Logger
}

// NewFallbackChain requires at least one provider.
func NewFallbackChain(providers ...Provider) (*FallbackChain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("fallback chain needs at least one provider")
	}
	return &FallbackChain{
		providers: providers,
		logger:    log.With().Str("component", "provider_chain").Logger(),
	}, nil
}

func (f *FallbackChain) run(ctx context.Context, op string, call func(Provider) error) error {
	var lastErr error
	for i, p := range f.providers {
		err := call(p)
		if err == nil {
			return nil
		}
		if IsDataUnavailable(err) {
			return err
		}
		f.logger.Debug().Err(err).Int("provider", i).Str("op", op).Msg("Provider failed, trying next")
		lastErr = err
	}
	return fmt.Errorf("all providers failed for %s: %w", op, lastErr)
}

func (f *FallbackChain) Quote(ctx context.Context, ticker string) (*Quote, error) {
	var out *Quote
	err := f.run(ctx, "quote", func(p Provider) error {
		var err error
		out, err = p.Quote(ctx, ticker)
		return err
	})
	return out, err
}

func (f *FallbackChain) OptionChain(ctx context.Context, ticker string, expiration time.Time) (*OptionChain, error) {
	var out *OptionChain
	err := f.run(ctx, "option_chain", func(p Provider) error {
		var err error
		out, err = p.OptionChain(ctx, ticker, expiration)
		return err
	})
	return out, err
}

func (f *FallbackChain) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	var out []time.Time
	err := f.run(ctx, "expirations", func(p Provider) error {
		var err error
		out, err = p.Expirations(ctx, ticker)
		return err
	})
	return out, err
}

func (f *FallbackChain) HistoricalTicks(ctx context.Context, contract Contract, lookback int) ([]Tick, error) {
	var out []Tick
	err := f.run(ctx, "historical_ticks", func(p Provider) error {
		var err error
		out, err = p.HistoricalTicks(ctx, contract, lookback)
		return err
	})
	return out, err
}

func (f *FallbackChain) PriceHistory(ctx context.Context, ticker string, period time.Duration) ([]PriceBar, error) {
	var out []PriceBar
	err := f.run(ctx, "price_history", func(p Provider) error {
		var err error
		out, err = p.PriceHistory(ctx, ticker, period)
		return err
	})
	return out, err
}

func (f *FallbackChain) News(ctx context.Context, ticker string) ([]NewsItem, error) {
	var out []NewsItem
	err := f.run(ctx, "news", func(p Provider) error {
		var err error
		out, err = p.News(ctx, ticker)
		return err
	})
	return out, err
}

func (f *FallbackChain) InsiderTransactions(ctx context.Context, ticker string, window time.Duration) ([]InsiderTransaction, error) {
	var out []InsiderTransaction
	err := f.run(ctx, "insider_transactions", func(p Provider) error {
		var err error
		out, err = p.InsiderTransactions(ctx, ticker, window)
		return err
	})
	return out, err
}
