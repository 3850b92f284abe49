// Package signals computes discrete unusual-activity signals for a ticker
// from an option-chain snapshot. No tick data is required.
package signals

import (
	"time"

	"github.com/flowradar/flowradar/internal/alerts"
)

// Kind tags a discovery signal variant.
type Kind string

const (
	KindUnusualVolume  Kind = "UNUSUAL_VOLUME"
	KindIVSurge        Kind = "IV_SURGE"
	KindOISurge        Kind = "OI_SURGE"
	KindPCRatioExtreme Kind = "PC_RATIO_EXTREME"
)

// Details is the kind-specific payload carried by a signal. Each kind has
// exactly one payload type.
type Details interface {
	signalDetails()
}

// UnusualVolumeDetails accompanies KindUnusualVolume.
type UnusualVolumeDetails struct {
	TotalVolume       int64   `json:"total_volume"`
	TotalOpenInterest int64   `json:"total_open_interest"`
	VolumeOIRatio     float64 `json:"volume_oi_ratio"`
}

// IVSurgeDetails accompanies KindIVSurge.
type IVSurgeDetails struct {
	AverageATMIV    float64 `json:"average_atm_iv"`
	ExpirationsUsed int     `json:"expirations_used"`
	UnderlyingPrice float64 `json:"underlying_price"`
}

// OISurgeDetails accompanies KindOISurge.
type OISurgeDetails struct {
	TotalOpenInterest int64     `json:"total_open_interest"`
	Expiration        time.Time `json:"expiration"`
}

// PCRatioDetails accompanies KindPCRatioExtreme.
type PCRatioDetails struct {
	PutVolume  int64   `json:"put_volume"`
	CallVolume int64   `json:"call_volume"`
	Ratio      float64 `json:"ratio"`
}

func (UnusualVolumeDetails) signalDetails() {}
func (IVSurgeDetails) signalDetails()       {}
func (OISurgeDetails) signalDetails()       {}
func (PCRatioDetails) signalDetails()       {}

// Signal is one detected anomaly. Signals are ephemeral per scan cycle;
// the discovery scorer consumes them immediately.
type Signal struct {
	Ticker    string          `json:"ticker"`
	Kind      Kind            `json:"kind"`
	Severity  alerts.Severity `json:"severity"`
	Score     float64         `json:"score"`
	Details   Details         `json:"details"`
	Timestamp time.Time       `json:"timestamp"`
}
