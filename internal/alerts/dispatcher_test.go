package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	delivered []Alert
}

func (r *recordingSink) Notify(alert Alert) {
	r.delivered = append(r.delivered, alert)
}

func TestDispatcher_Deliver_FilterThenPersistThenSink(t *testing.T) {
	sink := &recordingSink{}
	dispatcher := NewDispatcher(NewFilter(DefaultFilterConfig()), sink, 8)

	var persisted []Alert
	dispatcher.Persist = func(a Alert) { persisted = append(persisted, a) }

	alert := New("KO", "PUT_BLOCKS", SeverityHigh, "t", "m", "r")
	assert.True(t, dispatcher.Deliver(Event{Ticker: "KO", Alert: alert}))

	require.Len(t, sink.delivered, 1)
	require.Len(t, persisted, 1)
	assert.Equal(t, alert.ID, sink.delivered[0].ID)
}

func TestDispatcher_Deliver_SuppressedAlertNeverReachesSink(t *testing.T) {
	sink := &recordingSink{}
	dispatcher := NewDispatcher(NewFilter(DefaultFilterConfig()), sink, 8)

	suppressed := 0
	dispatcher.OnSuppressed = func() { suppressed++ }
	var persisted []Alert
	dispatcher.Persist = func(a Alert) { persisted = append(persisted, a) }

	alert := New("KO", "PUT_BLOCKS", SeverityHigh, "t", "m", "r")
	assert.True(t, dispatcher.Deliver(Event{Ticker: "KO", Alert: alert}))
	assert.False(t, dispatcher.Deliver(Event{Ticker: "KO", Alert: alert}), "cooldown repeat is dropped")

	assert.Len(t, sink.delivered, 1)
	assert.Len(t, persisted, 1, "suppressed alerts are not persisted")
	assert.Equal(t, 1, suppressed)
}

func TestDispatcher_Publish_FullQueueDropsWithoutBlocking(t *testing.T) {
	sink := &recordingSink{}
	dispatcher := NewDispatcher(NewFilter(DefaultFilterConfig()), sink, 1)

	suppressed := 0
	dispatcher.OnSuppressed = func() { suppressed++ }

	// No consumer running: first fills the buffer, second must drop.
	assert.True(t, dispatcher.Publish("KO", New("KO", "PUT_BLOCKS", SeverityHigh, "t", "m", "r")))

	done := make(chan bool, 1)
	go func() {
		done <- dispatcher.Publish("KO", New("KO", "PUT_SWEEP", SeverityCritical, "t", "m", "r"))
	}()
	select {
	case accepted := <-done:
		assert.False(t, accepted)
		assert.Equal(t, 1, suppressed)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestDispatcher_Deliver_CountsDelivered(t *testing.T) {
	sink := &recordingSink{}
	dispatcher := NewDispatcher(NewFilter(DefaultFilterConfig()), sink, 8)

	var severities []Severity
	dispatcher.OnDelivered = func(a Alert) { severities = append(severities, a.Severity) }

	dispatcher.Deliver(Event{Ticker: "KO", Alert: New("KO", "PUT_SWEEP", SeverityCritical, "t", "m", "r")})

	require.Len(t, severities, 1)
	assert.Equal(t, SeverityCritical, severities[0])
}
