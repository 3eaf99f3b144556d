package eventbus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_RoundTrip(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	require.NoError(t, eb.SendToCore(AppendRequestEvent{ID: "1", Text: "hi"}))
	got := <-eb.UIToCore()
	assert.Equal(t, AppendRequestEvent{ID: "1", Text: "hi"}, got)

	require.NoError(t, eb.SendToUI(CallResultEvent{ID: "1", Entries: []string{"hi"}}))
	reply := <-eb.CoreToUI()
	assert.Equal(t, CallResultEvent{ID: "1", Entries: []string{"hi"}}, reply)
}

func TestEventBus_FullChannelReportsError(t *testing.T) {
	eb := NewEventBusWithCapacity(1)
	defer eb.Close()

	var reported []EventBusError
	eb.SetErrorCallback(func(e EventBusError) { reported = append(reported, e) })

	require.NoError(t, eb.SendToCore(ReadRequestEvent{ID: "a"}))
	err := eb.SendToCore(ReadRequestEvent{ID: "b"})
	require.Error(t, err)

	require.Len(t, reported, 1)
	assert.Equal(t, "SendToCore", reported[0].Operation)
	assert.Contains(t, reported[0].Error(), "channel is full")
}

func TestEventBus_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	eb := NewEventBusWithCapacity(0)
	defer eb.Close()

	for i := 0; i < 5; i++ {
		require.Error(t, eb.SendToUI(CallResultEvent{ID: "x"}))
	}
	assert.Equal(t, CircuitOpen, eb.GetCircuitBreakerState())

	err := eb.SendToCore(ReadRequestEvent{ID: "y"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestEventBus_SendAfterCloseFails(t *testing.T) {
	eb := NewEventBus()
	eb.Close()
	eb.Close()

	assert.ErrorIs(t, eb.SendToCore(ReadRequestEvent{ID: "1"}), ErrBusClosed)
	assert.ErrorIs(t, eb.SendToUI(CallResultEvent{ID: "1"}), ErrBusClosed)

	_, ok := <-eb.UIToCore()
	assert.False(t, ok)
}

func TestCircuitBreaker_HalfOpensAfterTimeout(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	now = now.Add(2 * time.Minute)
	assert.False(t, cb.IsOpen())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestEventBusError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := EventBusError{Operation: "SendToUI", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "SendToUI: boom", err.Error())
}
