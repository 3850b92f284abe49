package alerts

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Sink receives alerts that pass the filter. Notifier satisfies it; tests
// substitute a recording sink.
type Sink interface {
	Notify(alert Alert)
}

// Event pairs a ticker with an alert queued for delivery.
type Event struct {
	Ticker string
	Alert  Alert
}

// Dispatcher decouples alert producers (the monitor loop, ad-hoc scans)
// from delivery. Producers publish onto a channel; a single consumer
// applies the dedup filter and forwards accepted alerts to the sink.
type Dispatcher struct {
	events chan Event
	filter *Filter
	sink   Sink

	// Persist, when set, is called for every accepted alert before
	// delivery so dispatched alerts land in durable storage.
	Persist func(Alert)

	// OnDelivered and OnSuppressed, when set, feed instrumentation.
	OnDelivered  func(Alert)
	OnSuppressed func()
}

// NewDispatcher creates a dispatcher with a buffered event queue.
func NewDispatcher(filter *Filter, sink Sink, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		events: make(chan Event, buffer),
		filter: filter,
		sink:   sink,
	}
}

// Publish queues an alert for delivery. It never blocks: when the queue
// is full the alert is dropped and counted as suppressed, which keeps a
// slow delivery channel from stalling the scan loop.
func (d *Dispatcher) Publish(ticker string, alert Alert) bool {
	select {
	case d.events <- Event{Ticker: ticker, Alert: alert}:
		return true
	default:
		log.Warn().Str("ticker", ticker).Str("type", alert.Type).Msg("Alert queue full, dropping alert")
		if d.OnSuppressed != nil {
			d.OnSuppressed()
		}
		return false
	}
}

// Run consumes events until ctx is cancelled. It is the only goroutine
// touching the filter's accept path during monitor operation.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.Deliver(ev)
		}
	}
}

// Deliver applies the filter and forwards one event synchronously. Tests
// call it directly to exercise delivery without a running monitor.
func (d *Dispatcher) Deliver(ev Event) bool {
	if !d.filter.ShouldAlert(ev.Alert) {
		log.Debug().Str("ticker", ev.Ticker).Str("type", ev.Alert.Type).Msg("Alert suppressed")
		if d.OnSuppressed != nil {
			d.OnSuppressed()
		}
		return false
	}
	if d.Persist != nil {
		d.Persist(ev.Alert)
	}
	d.sink.Notify(ev.Alert)
	if d.OnDelivered != nil {
		d.OnDelivered(ev.Alert)
	}
	return true
}
