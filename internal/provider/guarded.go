package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardConfig controls the rate limiter and circuit breaker applied to a
// wrapped provider.
type GuardConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BreakerInterval   time.Duration `yaml:"breaker_interval"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout"`
	MaxHalfOpen       uint32        `yaml:"max_half_open"`
	FailureThreshold  uint32        `yaml:"failure_threshold"`
}

// DefaultGuardConfig returns limits suitable for free-tier vendor APIs.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RequestsPerSecond: 5.0,
		Burst:             10,
		BreakerInterval:   60 * time.Second,
		BreakerTimeout:    30 * time.Second,
		MaxHalfOpen:       3,
		FailureThreshold:  5,
	}
}

// GuardedProvider decorates a Provider with a token-bucket rate limiter
// and a circuit breaker. A tripped breaker or cancelled wait surfaces as
// ErrDataUnavailable so scanners soft-skip instead of aborting a batch.
type GuardedProvider struct {
	inner   Provider
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	onError func(op string)
}

// NewGuardedProvider wraps inner with the configured guards.
func NewGuardedProvider(inner Provider, cfg GuardConfig) *GuardedProvider {
	settings := gobreaker.Settings{
		Name:        "market-data",
		MaxRequests: cfg.MaxHalfOpen,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Provider circuit breaker state change")
		},
		IsSuccessful: func(err error) bool {
			// Missing data is a data condition, not a provider outage.
			return err == nil || IsDataUnavailable(err)
		},
	}

	return &GuardedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Instrument registers a per-operation failure callback, typically a
// Prometheus counter increment.
func (g *GuardedProvider) Instrument(onError func(op string)) {
	g.onError = onError
}

// fail records a provider failure for op. Data-unavailable answers are
// not failures and never reach here.
func (g *GuardedProvider) fail(op string) {
	if g.onError != nil {
		g.onError(op)
	}
}

// call runs fn behind the limiter and breaker, mapping guard failures to
// ErrDataUnavailable.
func (g *GuardedProvider) call(ctx context.Context, op string, fn func() (interface{}, error)) (interface{}, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		g.fail(op)
		return nil, fmt.Errorf("%w: rate limit wait for %s: %v", ErrDataUnavailable, op, err)
	}

	result, err := g.breaker.Execute(fn)
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			g.fail(op)
			return nil, fmt.Errorf("%w: circuit open for %s", ErrDataUnavailable, op)
		}
		if !IsDataUnavailable(err) {
			g.fail(op)
		}
		return nil, err
	}
	return result, nil
}

func (g *GuardedProvider) Quote(ctx context.Context, ticker string) (*Quote, error) {
	result, err := g.call(ctx, "quote", func() (interface{}, error) {
		return g.inner.Quote(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Quote), nil
}

func (g *GuardedProvider) OptionChain(ctx context.Context, ticker string, expiration time.Time) (*OptionChain, error) {
	result, err := g.call(ctx, "option_chain", func() (interface{}, error) {
		return g.inner.OptionChain(ctx, ticker, expiration)
	})
	if err != nil {
		return nil, err
	}
	return result.(*OptionChain), nil
}

func (g *GuardedProvider) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	result, err := g.call(ctx, "expirations", func() (interface{}, error) {
		return g.inner.Expirations(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return result.([]time.Time), nil
}

func (g *GuardedProvider) HistoricalTicks(ctx context.Context, contract Contract, lookback int) ([]Tick, error) {
	result, err := g.call(ctx, "historical_ticks", func() (interface{}, error) {
		return g.inner.HistoricalTicks(ctx, contract, lookback)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Tick), nil
}

func (g *GuardedProvider) PriceHistory(ctx context.Context, ticker string, period time.Duration) ([]PriceBar, error) {
	result, err := g.call(ctx, "price_history", func() (interface{}, error) {
		return g.inner.PriceHistory(ctx, ticker, period)
	})
	if err != nil {
		return nil, err
	}
	return result.([]PriceBar), nil
}

func (g *GuardedProvider) News(ctx context.Context, ticker string) ([]NewsItem, error) {
	result, err := g.call(ctx, "news", func() (interface{}, error) {
		return g.inner.News(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return result.([]NewsItem), nil
}

func (g *GuardedProvider) InsiderTransactions(ctx context.Context, ticker string, window time.Duration) ([]InsiderTransaction, error) {
	result, err := g.call(ctx, "insider_transactions", func() (interface{}, error) {
		return g.inner.InsiderTransactions(ctx, ticker, window)
	})
	if err != nil {
		return nil, err
	}
	return result.([]InsiderTransaction), nil
}
