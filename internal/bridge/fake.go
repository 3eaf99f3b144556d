package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/Rorical/RoriLog/internal/store"
)

// Fake simulates the backend in memory. It is the offline fallback and the
// test double for the log client.
type Fake struct {
	scheduler Scheduler

	mu       sync.Mutex
	store    *store.EntryStore
	failNext bool
	latency  time.Duration
}

func NewFake(scheduler Scheduler) *Fake {
	return &Fake{
		scheduler: scheduler,
		store:     store.New(store.NewMemoryWorkbook(), ""),
	}
}

// FailNext makes the next Submit fail with FailureMessage without touching
// the simulated log.
func (f *Fake) FailNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = true
}

// SetLatency delays every result by d before it is scheduled.
func (f *Fake) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
}

// Reset clears the fail switch and the simulated log.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = false
	f.store = store.New(store.NewMemoryWorkbook(), "")
}

// Entries returns the simulated log.
func (f *Fake) Entries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	// The memory workbook never fails.
	entries, _ := f.store.ReadAll(context.Background())
	return entries
}

func (f *Fake) Submit(text string, onSuccess SuccessHandler, onFailure FailureHandler) {
	res := newResolver(f.scheduler, onSuccess, onFailure)

	f.mu.Lock()
	latency := f.latency
	if f.failNext {
		f.failNext = false
		f.mu.Unlock()
		f.deliver(latency, func() { res.fail(FailureMessage) })
		return
	}
	entries, err := f.store.Append(context.Background(), text)
	f.mu.Unlock()

	if err != nil {
		f.deliver(latency, func() { res.fail(describeSaveError(err)) })
		return
	}
	f.deliver(latency, func() { res.succeed(entries) })
}

// GetEntries always succeeds with the current simulated log.
func (f *Fake) GetEntries(onSuccess SuccessHandler, onFailure FailureHandler) {
	res := newResolver(f.scheduler, onSuccess, onFailure)
	entries := f.Entries()

	f.mu.Lock()
	latency := f.latency
	f.mu.Unlock()
	f.deliver(latency, func() { res.succeed(entries) })
}

func (f *Fake) deliver(latency time.Duration, settle func()) {
	if latency <= 0 {
		settle()
		return
	}
	time.AfterFunc(latency, settle)
}
