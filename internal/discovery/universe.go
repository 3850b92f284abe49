package discovery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UniverseScan is the outcome of scoring a list of tickers.
type UniverseScan struct {
	Scanned   int           `json:"scanned"`
	Failed    int           `json:"failed"`
	Qualified []*Result     `json:"qualified"`
	Elapsed   time.Duration `json:"elapsed"`
}

// UniverseScanner fans ticker scoring out over a bounded worker pool.
// Per-ticker failures are logged and skipped so one bad symbol never
// poisons a scan.
type UniverseScanner struct {
	scorer  *Scorer
	workers int
	logger  zerolog.Logger
}

// NewUniverseScanner builds a scanner with the scorer's configured
// worker count (minimum one).
func NewUniverseScanner(scorer *Scorer) *UniverseScanner {
	workers := scorer.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &UniverseScanner{
		scorer:  scorer,
		workers: workers,
		logger:  log.With().Str("component", "universe_scanner").Logger(),
	}
}

// Scan scores every ticker concurrently and returns the qualified
// candidates ranked by discovery score, highest first. Ties break by
// confidence, then ticker for a stable ordering.
func (u *UniverseScanner) Scan(ctx context.Context, tickers []string) *UniverseScan {
	start := time.Now()

	jobs := make(chan string)
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		qualified []*Result
		failed    int
	)

	for i := 0; i < u.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				result, err := u.scorer.ScoreTicker(ctx, ticker)
				if err != nil {
					u.logger.Debug().Err(err).Str("ticker", ticker).Msg("Ticker scan failed, skipping")
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				if result == nil {
					continue
				}
				mu.Lock()
				qualified = append(qualified, result)
				mu.Unlock()
			}
		}()
	}

	for _, ticker := range tickers {
		select {
		case jobs <- ticker:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return &UniverseScan{Scanned: len(tickers), Failed: failed, Qualified: rank(qualified), Elapsed: time.Since(start)}
		}
	}
	close(jobs)
	wg.Wait()

	scan := &UniverseScan{
		Scanned:   len(tickers),
		Failed:    failed,
		Qualified: rank(qualified),
		Elapsed:   time.Since(start),
	}
	u.logger.Info().
		Int("scanned", scan.Scanned).
		Int("qualified", len(scan.Qualified)).
		Int("failed", scan.Failed).
		Dur("elapsed", scan.Elapsed).
		Msg("Universe scan complete")
	return scan
}

func rank(results []*Result) []*Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DiscoveryScore != results[j].DiscoveryScore {
			return results[i].DiscoveryScore > results[j].DiscoveryScore
		}
		if results[i].ConfidenceScore != results[j].ConfidenceScore {
			return results[i].ConfidenceScore > results[j].ConfidenceScore
		}
		return results[i].Ticker < results[j].Ticker
	})
	return results
}
