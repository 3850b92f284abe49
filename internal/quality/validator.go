// Package quality grades the data behind a discovery candidate: put/call
// aggregation quality, data freshness, fundamental strength, insider
// sentiment and an overall confidence score.
package quality

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flowradar/flowradar/internal/provider"
)

// DataQuality grades how much of the option chain backed a computation.
type DataQuality string

const (
	QualityHigh   DataQuality = "HIGH"
	QualityMedium DataQuality = "MEDIUM"
	QualityLow    DataQuality = "LOW"
)

// PutCallAggregate sums volume and open interest across scanned
// expirations, split into all-expirations and near-term (<30 DTE) views.
// Every ratio division is guarded: a zero denominator yields 0.0.
type PutCallAggregate struct {
	Ticker string `json:"ticker"`

	CallVolume int64 `json:"call_volume"`
	PutVolume  int64 `json:"put_volume"`
	CallOI     int64 `json:"call_oi"`
	PutOI      int64 `json:"put_oi"`

	NearTermCallVolume int64 `json:"near_term_call_volume"`
	NearTermPutVolume  int64 `json:"near_term_put_volume"`

	PCVolume         float64 `json:"pc_volume"`
	PCOpenInterest   float64 `json:"pc_open_interest"`
	NearTermPCVolume float64 `json:"near_term_pc_volume"`

	ExpirationsScanned int         `json:"expirations_scanned"`
	DataQuality        DataQuality `json:"data_quality"`
	Timestamp          time.Time   `json:"timestamp"`
}

// ValidatorConfig controls aggregation depth and freshness.
type ValidatorConfig struct {
	MaxExpirations int           `yaml:"max_expirations"`
	NearTermWindow time.Duration `yaml:"near_term_window"`
	MaxAge         time.Duration `yaml:"max_age"`
}

// DefaultValidatorConfig scans up to 6 expirations, treats <30 days as
// near-term and considers data stale after one hour.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MaxExpirations: 6,
		NearTermWindow: 30 * 24 * time.Hour,
		MaxAge:         time.Hour,
	}
}

// Validator computes data-quality grades and multi-factor confidence.
type Validator struct {
	provider provider.Provider
	cfg      ValidatorConfig
	logger   zerolog.Logger
}

// NewValidator creates a validator over the given provider.
func NewValidator(p provider.Provider, cfg ValidatorConfig) *Validator {
	return &Validator{
		provider: p,
		cfg:      cfg,
		logger:   log.With().Str("component", "quality_validator").Logger(),
	}
}

// AggregatePutCall sums put/call volume and OI over up to MaxExpirations
// expirations. Missing chains reduce coverage (and therefore the quality
// grade) rather than erroring.
func (v *Validator) AggregatePutCall(ctx context.Context, ticker string) (*PutCallAggregate, error) {
	expirations, err := v.provider.Expirations(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(expirations) > v.cfg.MaxExpirations {
		expirations = expirations[:v.cfg.MaxExpirations]
	}

	agg := &PutCallAggregate{Ticker: ticker, Timestamp: time.Now()}
	nearTermCutoff := time.Now().Add(v.cfg.NearTermWindow)

	for _, exp := range expirations {
		chain, err := v.provider.OptionChain(ctx, ticker, exp)
		if err != nil {
			v.logger.Debug().Err(err).Str("ticker", ticker).Time("expiration", exp).
				Msg("Chain unavailable during aggregation")
			continue
		}
		agg.ExpirationsScanned++

		nearTerm := exp.Before(nearTermCutoff)
		for _, q := range chain.Calls {
			agg.CallVolume += q.Volume
			agg.CallOI += q.OpenInterest
			if nearTerm {
				agg.NearTermCallVolume += q.Volume
			}
		}
		for _, q := range chain.Puts {
			agg.PutVolume += q.Volume
			agg.PutOI += q.OpenInterest
			if nearTerm {
				agg.NearTermPutVolume += q.Volume
			}
		}
	}

	agg.PCVolume = safeRatio(agg.PutVolume, agg.CallVolume)
	agg.PCOpenInterest = safeRatio(agg.PutOI, agg.CallOI)
	agg.NearTermPCVolume = safeRatio(agg.NearTermPutVolume, agg.NearTermCallVolume)
	agg.DataQuality = gradeQuality(agg.ExpirationsScanned, agg.CallOI)

	return agg, nil
}

// IsFresh reports whether a timestamp is within the configured max age.
func (v *Validator) IsFresh(timestamp time.Time) bool {
	return time.Since(timestamp) < v.cfg.MaxAge
}

func safeRatio(num, den int64) float64 {
	if den == 0 {
		return 0.0
	}
	return float64(num) / float64(den)
}

func gradeQuality(expirationsScanned int, callOI int64) DataQuality {
	switch {
	case expirationsScanned >= 4 && callOI > 5000:
		return QualityHigh
	case expirationsScanned >= 2 && callOI > 1000:
		return QualityMedium
	default:
		return QualityLow
	}
}

// Fundamentals holds the balance-sheet inputs to the quality score.
// Ratios are fractions (0.25 = 25%) except DebtToEquity, which is the
// conventional percentage figure (150 = 1.5x equity).
type Fundamentals struct {
	ReturnOnEquity         float64 `json:"return_on_equity"`
	FreeCashFlow           float64 `json:"free_cash_flow"`
	InsiderOwnership       float64 `json:"insider_ownership"`
	ProfitMargin           float64 `json:"profit_margin"`
	InstitutionalOwnership float64 `json:"institutional_ownership"`
	DebtToEquity           float64 `json:"debt_to_equity"`
	ShortInterest          float64 `json:"short_interest"`
}

// FundamentalScore maps fundamentals onto [0,100]. Contributions: ROE up
// to 20 points (full credit at 30%), positive free cash flow 15, insider
// ownership up to 15 (full at 20%), profit margin up to 15 (full at 20%),
// institutional ownership up to 10 (full at 80%). Penalties: debt/equity
// above 100 costs up to 20 points, short interest above 15% up to 10.
func FundamentalScore(f Fundamentals) float64 {
	score := 0.0

	if f.ReturnOnEquity > 0 {
		score += math.Min(20, f.ReturnOnEquity/0.30*20)
	}
	if f.FreeCashFlow > 0 {
		score += 15
	}
	if f.InsiderOwnership > 0 {
		score += math.Min(15, f.InsiderOwnership/0.20*15)
	}
	if f.ProfitMargin > 0 {
		score += math.Min(15, f.ProfitMargin/0.20*15)
	}
	if f.InstitutionalOwnership > 0 {
		score += math.Min(10, f.InstitutionalOwnership/0.80*10)
	}

	if f.DebtToEquity > 100 {
		score -= math.Min(20, (f.DebtToEquity-100)*0.2)
	}
	if f.ShortInterest > 0.15 {
		score -= math.Min(10, (f.ShortInterest-0.15)*100)
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
