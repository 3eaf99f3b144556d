package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriLog/internal/eventbus"
)

func TestSchedule_NeverRunsInline(t *testing.T) {
	ed := NewEventDispatcher(nil)
	defer ed.Stop()

	ran := false
	ed.Schedule(func() { ran = true })
	assert.False(t, ran)
	assert.Equal(t, 1, ed.Pending())

	assert.Equal(t, 1, ed.RunPending())
	assert.True(t, ran)
	assert.Equal(t, 0, ed.Pending())
}

func TestRunPending_FIFOIncludingNestedTasks(t *testing.T) {
	ed := NewEventDispatcher(nil)
	defer ed.Stop()

	var order []string
	ed.Schedule(func() {
		order = append(order, "a")
		ed.Schedule(func() { order = append(order, "c") })
	})
	ed.Schedule(func() { order = append(order, "b") })
	ed.Schedule(nil)

	assert.Equal(t, 3, ed.RunPending())
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRunNext_WaitsForOtherGoroutines(t *testing.T) {
	ed := NewEventDispatcher(nil)
	defer ed.Stop()

	ran := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		ed.Schedule(func() { close(ran) })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ed.RunNext(ctx))
	<-ran
}

func TestRunNext_ContextDone(t *testing.T) {
	ed := NewEventDispatcher(nil)
	defer ed.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ed.RunNext(ctx), context.DeadlineExceeded)
}

func TestListenForUIEvents_ReturnsTaskMsg(t *testing.T) {
	ed := NewEventDispatcher(nil)
	defer ed.Stop()

	ran := false
	ed.Schedule(func() { ran = true })

	msg := ed.ListenForUIEvents()()
	task, ok := msg.(TaskMsg)
	require.True(t, ok)
	task.Run()
	assert.True(t, ran)
}

func TestListenForUIEvents_NilAfterStop(t *testing.T) {
	ed := NewEventDispatcher(nil)
	ed.Stop()
	assert.Nil(t, ed.ListenForUIEvents()())
}

func TestStart_SchedulesCoreEvents(t *testing.T) {
	eb := eventbus.NewEventBus()
	ed := NewEventDispatcher(eb)
	defer ed.Stop()

	var got []eventbus.CoreEvent
	ed.Start(func(e eventbus.CoreEvent) { got = append(got, e) })

	require.NoError(t, eb.SendToUI(eventbus.CallResultEvent{ID: "1"}))
	require.NoError(t, eb.SendToUI(eventbus.CallResultEvent{ID: "2"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ed.RunNext(ctx))
	require.NoError(t, ed.RunNext(ctx))

	assert.Equal(t, []eventbus.CoreEvent{
		eventbus.CallResultEvent{ID: "1"},
		eventbus.CallResultEvent{ID: "2"},
	}, got)
	assert.Same(t, eb, ed.GetEventBus())
}
