package provider

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubProvider is an in-memory Provider used by tests and the --stub CLI
// mode. Unset data returns ErrDataUnavailable, matching how a vendor API
// behaves for unknown symbols.
type StubProvider struct {
	mu          sync.RWMutex
	quotes      map[string]*Quote
	expirations map[string][]time.Time
	chains      map[string]*OptionChain
	ticks       map[string][]Tick
	bars        map[string][]PriceBar
	news        map[string][]NewsItem
	insiders    map[string][]InsiderTransaction
}

// NewStubProvider returns an empty stub.
func NewStubProvider() *StubProvider {
	return &StubProvider{
		quotes:      make(map[string]*Quote),
		expirations: make(map[string][]time.Time),
		chains:      make(map[string]*OptionChain),
		ticks:       make(map[string][]Tick),
		bars:        make(map[string][]PriceBar),
		news:        make(map[string][]NewsItem),
		insiders:    make(map[string][]InsiderTransaction),
	}
}

func chainKey(ticker string, expiration time.Time) string {
	return fmt.Sprintf("%s|%s", ticker, expiration.Format("2006-01-02"))
}

// ContractKey builds the lookup key used for stubbed tick data.
func ContractKey(c Contract) string {
	return fmt.Sprintf("%s|%.2f|%s|%s", c.Ticker, c.Strike, c.Right, c.Expiration.Format("2006-01-02"))
}

// SetQuote installs a quote fixture.
func (s *StubProvider) SetQuote(q *Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Ticker] = q
}

// SetChain installs an option chain fixture and registers its expiration.
func (s *StubProvider) SetChain(chain *OptionChain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains[chainKey(chain.Ticker, chain.Expiration)] = chain

	for _, exp := range s.expirations[chain.Ticker] {
		if exp.Equal(chain.Expiration) {
			return
		}
	}
	s.expirations[chain.Ticker] = append(s.expirations[chain.Ticker], chain.Expiration)
}

// SetTicks installs tick fixtures for one contract.
func (s *StubProvider) SetTicks(c Contract, ticks []Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[ContractKey(c)] = ticks
}

// SetPriceHistory installs daily bars for a ticker.
func (s *StubProvider) SetPriceHistory(ticker string, bars []PriceBar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bars[ticker] = bars
}

// SetNews installs headline fixtures for a ticker.
func (s *StubProvider) SetNews(ticker string, items []NewsItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.news[ticker] = items
}

// SetInsiderTransactions installs insider activity fixtures.
func (s *StubProvider) SetInsiderTransactions(ticker string, txns []InsiderTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insiders[ticker] = txns
}

func (s *StubProvider) Quote(ctx context.Context, ticker string) (*Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: no quote for %s", ErrDataUnavailable, ticker)
	}
	copied := *q
	return &copied, nil
}

func (s *StubProvider) OptionChain(ctx context.Context, ticker string, expiration time.Time) (*OptionChain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain, ok := s.chains[chainKey(ticker, expiration)]
	if !ok {
		return nil, fmt.Errorf("%w: no chain for %s %s", ErrDataUnavailable, ticker, expiration.Format("2006-01-02"))
	}
	copied := *chain
	copied.Calls = append([]OptionQuote(nil), chain.Calls...)
	copied.Puts = append([]OptionQuote(nil), chain.Puts...)
	return &copied, nil
}

func (s *StubProvider) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exps, ok := s.expirations[ticker]
	if !ok || len(exps) == 0 {
		return nil, fmt.Errorf("%w: no expirations for %s", ErrDataUnavailable, ticker)
	}
	return append([]time.Time(nil), exps...), nil
}

func (s *StubProvider) HistoricalTicks(ctx context.Context, contract Contract, lookback int) ([]Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticks, ok := s.ticks[ContractKey(contract)]
	if !ok {
		return nil, fmt.Errorf("%w: no ticks for %s", ErrDataUnavailable, ContractKey(contract))
	}
	if lookback > 0 && len(ticks) > lookback {
		ticks = ticks[len(ticks)-lookback:]
	}
	return append([]Tick(nil), ticks...), nil
}

func (s *StubProvider) PriceHistory(ctx context.Context, ticker string, period time.Duration) ([]PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bars, ok := s.bars[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: no price history for %s", ErrDataUnavailable, ticker)
	}
	return append([]PriceBar(nil), bars...), nil
}

func (s *StubProvider) News(ctx context.Context, ticker string) ([]NewsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]NewsItem(nil), s.news[ticker]...), nil
}

func (s *StubProvider) InsiderTransactions(ctx context.Context, ticker string, window time.Duration) ([]InsiderTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var within []InsiderTransaction
	cutoff := time.Now().Add(-window)
	for _, txn := range s.insiders[ticker] {
		if txn.Date.After(cutoff) {
			within = append(within, txn)
		}
	}
	return within, nil
}
