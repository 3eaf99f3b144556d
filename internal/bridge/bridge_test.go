package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriLog/internal/core"
	"github.com/Rorical/RoriLog/internal/dispatcher"
	"github.com/Rorical/RoriLog/internal/eventbus"
	"github.com/Rorical/RoriLog/internal/store"
)

// outcome records every handler invocation for one call.
type outcome struct {
	mu        sync.Mutex
	successes [][]string
	failures  []string
}

func (o *outcome) onSuccess(entries []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.successes = append(o.successes, entries)
}

func (o *outcome) onFailure(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, msg)
}

func (o *outcome) calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.successes) + len(o.failures)
}

func newDispatcher(t *testing.T) *dispatcher.EventDispatcher {
	t.Helper()
	ed := dispatcher.NewEventDispatcher(nil)
	t.Cleanup(ed.Stop)
	return ed
}

func runOne(t *testing.T, ed *dispatcher.EventDispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, ed.RunNext(ctx))
}

func TestSaveFailure(t *testing.T) {
	assert.Equal(t, "Failed to save.", SaveFailure(""))
	assert.Equal(t, "Failed to save: Text is required.", SaveFailure("Text is required."))
}

func TestRunner_ChainsHandlers(t *testing.T) {
	ed := newDispatcher(t)
	fake := NewFake(ed)
	var out outcome

	Run(fake).
		WithSuccessHandler(out.onSuccess).
		WithFailureHandler(out.onFailure).
		SaveText("first")
	Run(fake).
		WithSuccessHandler(out.onSuccess).
		GetEntries()

	assert.Equal(t, 0, out.calls(), "handlers must not run inline")
	assert.Equal(t, 2, ed.RunPending())
	assert.Equal(t, [][]string{{"first"}, {"first"}}, out.successes)
	assert.Empty(t, out.failures)
}

func TestRunner_NilHandlersAreSkipped(t *testing.T) {
	ed := newDispatcher(t)
	fake := NewFake(ed)

	Run(fake).SaveText("ignored result")
	assert.Equal(t, 1, ed.RunPending())
	assert.Equal(t, []string{"ignored result"}, fake.Entries())
}

func TestResolver_SettlesOnce(t *testing.T) {
	ed := newDispatcher(t)
	var out outcome
	res := newResolver(ed, out.onSuccess, out.onFailure)

	assert.True(t, res.fail("boom"))
	assert.False(t, res.succeed([]string{"late"}))
	assert.False(t, res.fail("again"))

	ed.RunPending()
	assert.Empty(t, out.successes)
	assert.Equal(t, []string{"boom"}, out.failures)
}

func TestResolver_CopiesEntries(t *testing.T) {
	ed := newDispatcher(t)
	var out outcome
	entries := []string{"a"}
	newResolver(ed, out.onSuccess, out.onFailure).succeed(entries)
	entries[0] = "mutated"

	ed.RunPending()
	assert.Equal(t, [][]string{{"a"}}, out.successes)
}

func TestFake_FailNextAffectsOneCall(t *testing.T) {
	ed := newDispatcher(t)
	fake := NewFake(ed)
	var out outcome

	fake.FailNext()
	fake.Submit("lost", out.onSuccess, out.onFailure)
	fake.Submit("kept", out.onSuccess, out.onFailure)
	ed.RunPending()

	assert.Equal(t, []string{FailureMessage}, out.failures)
	assert.Equal(t, [][]string{{"kept"}}, out.successes)
	assert.Equal(t, []string{"kept"}, fake.Entries())
}

func TestFake_ValidationFailure(t *testing.T) {
	ed := newDispatcher(t)
	fake := NewFake(ed)
	var out outcome

	fake.Submit("  ", out.onSuccess, out.onFailure)
	ed.RunPending()

	assert.Equal(t, []string{"Failed to save: Text is required."}, out.failures)
	assert.Empty(t, fake.Entries())
}

func TestFake_Reset(t *testing.T) {
	ed := newDispatcher(t)
	fake := NewFake(ed)

	fake.Submit("x", nil, nil)
	fake.FailNext()
	fake.Reset()
	ed.RunPending()
	assert.Empty(t, fake.Entries())

	var out outcome
	fake.Submit("y", out.onSuccess, out.onFailure)
	ed.RunPending()
	assert.Equal(t, [][]string{{"y"}}, out.successes)
}

func TestFake_Latency(t *testing.T) {
	ed := newDispatcher(t)
	fake := NewFake(ed)
	fake.SetLatency(20 * time.Millisecond)
	var out outcome

	fake.Submit("slow", out.onSuccess, out.onFailure)
	assert.Equal(t, 0, ed.Pending())

	runOne(t, ed)
	assert.Equal(t, [][]string{{"slow"}}, out.successes)
}

func startCore(t *testing.T) (*eventbus.EventBus, *core.EntryService) {
	t.Helper()
	eb := eventbus.NewEventBus()
	svc := core.NewEntryService(store.New(store.NewMemoryWorkbook(), ""), eb)
	require.NoError(t, svc.Start())
	t.Cleanup(func() {
		svc.Stop()
		eb.Close()
	})
	return eb, svc
}

func TestBusBridge_RoundTrip(t *testing.T) {
	eb, _ := startCore(t)
	ed := dispatcher.NewEventDispatcher(eb)
	t.Cleanup(ed.Stop)
	b := NewBusBridge(eb, ed, time.Second)
	ed.Start(b.HandleCoreEvent)

	var out outcome
	b.Submit("A", out.onSuccess, out.onFailure)
	b.Submit("B", out.onSuccess, out.onFailure)
	b.Submit("", out.onSuccess, out.onFailure)
	b.GetEntries(out.onSuccess, out.onFailure)

	for out.calls() < 4 {
		runOne(t, ed)
	}

	assert.Equal(t, [][]string{{"A"}, {"A", "B"}, {"A", "B"}}, out.successes)
	assert.Equal(t, []string{"Failed to save: Text is required."}, out.failures)
	assert.Equal(t, 0, b.InFlight())
}

func TestBusBridge_TimeoutWinsOverLateReply(t *testing.T) {
	eb := eventbus.NewEventBus()
	t.Cleanup(eb.Close)
	ed := newDispatcher(t)
	b := NewBusBridge(eb, ed, 20*time.Millisecond)

	var out outcome
	b.Submit("never answered", out.onSuccess, out.onFailure)
	call := (<-eb.UIToCore()).(eventbus.AppendRequestEvent)

	runOne(t, ed)
	assert.Equal(t, []string{FailureMessage}, out.failures)

	b.HandleCoreEvent(eventbus.CallResultEvent{ID: call.ID, Entries: []string{"never answered"}})
	ed.RunPending()
	assert.Empty(t, out.successes)
	assert.Equal(t, 1, out.calls())
}

func TestBusBridge_LoadFailure(t *testing.T) {
	eb := eventbus.NewEventBus()
	t.Cleanup(eb.Close)
	ed := newDispatcher(t)
	b := NewBusBridge(eb, ed, 0)

	var out outcome
	b.GetEntries(out.onSuccess, out.onFailure)
	call := (<-eb.UIToCore()).(eventbus.ReadRequestEvent)
	b.HandleCoreEvent(eventbus.CallResultEvent{ID: call.ID, Err: assert.AnError})

	ed.RunPending()
	assert.Equal(t, []string{LoadFailureMessage}, out.failures)
}

func TestBusBridge_SendFailureIsDeferred(t *testing.T) {
	eb := eventbus.NewEventBus()
	eb.Close()
	ed := newDispatcher(t)
	b := NewBusBridge(eb, ed, time.Second)

	var out outcome
	b.Submit("x", out.onSuccess, out.onFailure)
	assert.Equal(t, 0, out.calls())
	assert.Equal(t, 0, b.InFlight())

	ed.RunPending()
	assert.Equal(t, []string{FailureMessage}, out.failures)
}

func TestBusBridge_CloseFailsPendingCalls(t *testing.T) {
	eb := eventbus.NewEventBus()
	t.Cleanup(eb.Close)
	ed := newDispatcher(t)
	b := NewBusBridge(eb, ed, 0)

	var out outcome
	b.Submit("a", out.onSuccess, out.onFailure)
	b.GetEntries(out.onSuccess, out.onFailure)
	require.Equal(t, 2, b.InFlight())

	b.Close()
	b.Submit("after close", out.onSuccess, out.onFailure)
	ed.RunPending()

	assert.ElementsMatch(t, []string{FailureMessage, LoadFailureMessage, FailureMessage}, out.failures)
	assert.Empty(t, out.successes)
	assert.Equal(t, 0, b.InFlight())
}

func TestBusBridge_IgnoresUnknownReplies(t *testing.T) {
	eb := eventbus.NewEventBus()
	t.Cleanup(eb.Close)
	ed := newDispatcher(t)
	b := NewBusBridge(eb, ed, 0)

	b.HandleCoreEvent(eventbus.CallResultEvent{ID: "nobody", Entries: []string{"x"}})
	assert.Equal(t, 0, ed.Pending())
}
