// Package alerts provides the alert model, pre-dispatch deduplication and
// best-effort multi-channel delivery.
package alerts

import (
	"time"

	"github.com/google/uuid"
)

// Severity orders alerts from informational to urgent.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the numeric ordering of a severity. Unknown severities
// rank below LOW so they never pass a minimum-severity gate.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Alert is a single actionable notification. Alerts are append-only once
// dispatched; deduplication happens before dispatch.
type Alert struct {
	ID             string    `json:"id" db:"id"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	Ticker         string    `json:"ticker" db:"ticker"`
	Type           string    `json:"type" db:"type"`
	Severity       Severity  `json:"severity" db:"severity"`
	Title          string    `json:"title" db:"title"`
	Message        string    `json:"message" db:"message"`
	Recommendation string    `json:"recommendation" db:"recommendation"`
}

// New builds an alert with a fresh ID and the current timestamp.
func New(ticker, alertType string, severity Severity, title, message, recommendation string) Alert {
	return Alert{
		ID:             uuid.NewString(),
		Timestamp:      time.Now(),
		Ticker:         ticker,
		Type:           alertType,
		Severity:       severity,
		Title:          title,
		Message:        message,
		Recommendation: recommendation,
	}
}
