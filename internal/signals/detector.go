package signals

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/provider"
)

// DetectorConfig holds the signal thresholds.
type DetectorConfig struct {
	VolumeOIThreshold float64 `yaml:"volume_oi_threshold"` // vol/OI ratio floor
	IVThreshold       float64 `yaml:"iv_threshold"`        // average ATM IV floor
	OIThreshold       int64   `yaml:"oi_threshold"`        // nearest-expiration OI floor
	PCRatioLow        float64 `yaml:"pc_ratio_low"`        // extreme call skew
	PCRatioHigh       float64 `yaml:"pc_ratio_high"`       // extreme put skew
}

// DefaultDetectorConfig returns the calibrated thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		VolumeOIThreshold: 0.5,
		IVThreshold:       0.5,
		OIThreshold:       10_000,
		PCRatioLow:        0.3,
		PCRatioHigh:       3.0,
	}
}

// Detector computes discovery signals from chain snapshots. Every
// detector fails soft: a category that cannot be computed contributes no
// signal instead of an error.
type Detector struct {
	provider provider.Provider
	cfg      DetectorConfig
	logger   zerolog.Logger
}

// NewDetector creates a detector over the given provider.
func NewDetector(p provider.Provider, cfg DetectorConfig) *Detector {
	return &Detector{
		provider: p,
		cfg:      cfg,
		logger:   log.With().Str("component", "signal_detector").Logger(),
	}
}

// Detect runs all four detectors against the ticker's current chains.
// A missing quote or chain yields an empty (never nil-error) result.
func (d *Detector) Detect(ctx context.Context, ticker string) []Signal {
	quote, err := d.provider.Quote(ctx, ticker)
	if err != nil {
		d.logger.Debug().Err(err).Str("ticker", ticker).Msg("No quote, skipping signal detection")
		return nil
	}

	expirations, err := d.provider.Expirations(ctx, ticker)
	if err != nil || len(expirations) == 0 {
		d.logger.Debug().Str("ticker", ticker).Msg("No expirations, skipping signal detection")
		return nil
	}
	if len(expirations) > 2 {
		expirations = expirations[:2]
	}

	var chains []*provider.OptionChain
	for _, exp := range expirations {
		chain, err := d.provider.OptionChain(ctx, ticker, exp)
		if err != nil {
			continue
		}
		chains = append(chains, chain)
	}
	if len(chains) == 0 {
		return nil
	}

	now := time.Now()
	var detected []Signal
	if sig := d.detectUnusualVolume(ticker, chains, now); sig != nil {
		detected = append(detected, *sig)
	}
	if sig := d.detectIVSurge(ticker, quote.Price, chains, now); sig != nil {
		detected = append(detected, *sig)
	}
	if sig := d.detectOISurge(ticker, chains[0], now); sig != nil {
		detected = append(detected, *sig)
	}
	if sig := d.detectPCExtreme(ticker, chains, now); sig != nil {
		detected = append(detected, *sig)
	}
	return detected
}

// detectUnusualVolume fires when aggregate volume runs above half of open
// interest across the snapshot.
func (d *Detector) detectUnusualVolume(ticker string, chains []*provider.OptionChain, now time.Time) *Signal {
	var volume, oi int64
	for _, chain := range chains {
		for _, q := range chain.Calls {
			volume += q.Volume
			oi += q.OpenInterest
		}
		for _, q := range chain.Puts {
			volume += q.Volume
			oi += q.OpenInterest
		}
	}
	if oi == 0 {
		return nil
	}

	ratio := float64(volume) / float64(oi)
	if ratio <= d.cfg.VolumeOIThreshold {
		return nil
	}

	return &Signal{
		Ticker:   ticker,
		Kind:     KindUnusualVolume,
		Severity: volumeSeverity(ratio),
		Score:    math.Min(100, ratio*30),
		Details: UnusualVolumeDetails{
			TotalVolume:       volume,
			TotalOpenInterest: oi,
			VolumeOIRatio:     ratio,
		},
		Timestamp: now,
	}
}

// detectIVSurge averages ATM implied vol across the first two expirations.
func (d *Detector) detectIVSurge(ticker string, spot float64, chains []*provider.OptionChain, now time.Time) *Signal {
	var ivSum float64
	var ivCount int
	for _, chain := range chains {
		if iv, ok := atmIV(chain, spot); ok {
			ivSum += iv
			ivCount++
		}
	}
	if ivCount == 0 {
		return nil
	}

	avgIV := ivSum / float64(ivCount)
	if avgIV <= d.cfg.IVThreshold {
		return nil
	}

	return &Signal{
		Ticker:   ticker,
		Kind:     KindIVSurge,
		Severity: severityForScore(math.Min(100, avgIV*60)),
		Score:    math.Min(100, avgIV*60),
		Details: IVSurgeDetails{
			AverageATMIV:    avgIV,
			ExpirationsUsed: ivCount,
			UnderlyingPrice: spot,
		},
		Timestamp: now,
	}
}

// detectOISurge checks total open interest of the nearest expiration.
func (d *Detector) detectOISurge(ticker string, chain *provider.OptionChain, now time.Time) *Signal {
	var oi int64
	for _, q := range chain.Calls {
		oi += q.OpenInterest
	}
	for _, q := range chain.Puts {
		oi += q.OpenInterest
	}
	if oi <= d.cfg.OIThreshold {
		return nil
	}

	score := math.Min(100, float64(oi)/1000.0*5)
	return &Signal{
		Ticker:   ticker,
		Kind:     KindOISurge,
		Severity: severityForScore(score),
		Score:    score,
		Details: OISurgeDetails{
			TotalOpenInterest: oi,
			Expiration:        chain.Expiration,
		},
		Timestamp: now,
	}
}

// detectPCExtreme flags extreme put/call volume skew in either direction.
func (d *Detector) detectPCExtreme(ticker string, chains []*provider.OptionChain, now time.Time) *Signal {
	var putVolume, callVolume int64
	for _, chain := range chains {
		for _, q := range chain.Puts {
			putVolume += q.Volume
		}
		for _, q := range chain.Calls {
			callVolume += q.Volume
		}
	}
	if callVolume == 0 || putVolume == 0 {
		return nil
	}

	ratio := float64(putVolume) / float64(callVolume)
	if ratio >= d.cfg.PCRatioLow && ratio <= d.cfg.PCRatioHigh {
		return nil
	}

	score := math.Min(100, math.Abs(math.Log(ratio))*40)
	return &Signal{
		Ticker:   ticker,
		Kind:     KindPCRatioExtreme,
		Severity: severityForScore(score),
		Score:    score,
		Details: PCRatioDetails{
			PutVolume:  putVolume,
			CallVolume: callVolume,
			Ratio:      ratio,
		},
		Timestamp: now,
	}
}

// atmIV returns the implied vol of the strike nearest spot, averaged over
// the call and put sides when both quote an IV.
func atmIV(chain *provider.OptionChain, spot float64) (float64, bool) {
	callIV, callOK := nearestIV(chain.Calls, spot)
	putIV, putOK := nearestIV(chain.Puts, spot)

	switch {
	case callOK && putOK:
		return (callIV + putIV) / 2, true
	case callOK:
		return callIV, true
	case putOK:
		return putIV, true
	default:
		return 0, false
	}
}

func nearestIV(quotes []provider.OptionQuote, spot float64) (float64, bool) {
	bestDist := math.MaxFloat64
	var bestIV float64
	found := false
	for _, q := range quotes {
		if q.ImpliedVolatility <= 0 {
			continue
		}
		dist := math.Abs(q.Strike - spot)
		if dist < bestDist {
			bestDist = dist
			bestIV = q.ImpliedVolatility
			found = true
		}
	}
	return bestIV, found
}

// volumeSeverity buckets the vol/OI ratio at 0.5, 1.0, 2.0 and 3.0.
func volumeSeverity(ratio float64) alerts.Severity {
	switch {
	case ratio >= 3.0:
		return alerts.SeverityCritical
	case ratio >= 2.0:
		return alerts.SeverityHigh
	case ratio >= 1.0:
		return alerts.SeverityMedium
	default:
		return alerts.SeverityLow
	}
}

// severityForScore maps a 0-100 signal score onto severity tiers.
func severityForScore(score float64) alerts.Severity {
	switch {
	case score >= 90:
		return alerts.SeverityCritical
	case score >= 70:
		return alerts.SeverityHigh
	case score >= 50:
		return alerts.SeverityMedium
	default:
		return alerts.SeverityLow
	}
}
