package bridge

import (
	"sync"
)

// SuccessHandler receives the canonical entry list, header excluded.
type SuccessHandler func(entries []string)

// FailureHandler receives a human-readable failure message.
type FailureHandler func(message string)

// Bridge carries calls from the log client to the entry store. For every
// call exactly one of the two handlers runs, exactly once, and never before
// the call itself has returned.
type Bridge interface {
	Submit(text string, onSuccess SuccessHandler, onFailure FailureHandler)
	GetEntries(onSuccess SuccessHandler, onFailure FailureHandler)
}

// Scheduler queues work onto the host's control thread.
type Scheduler interface {
	Schedule(task func())
}

const (
	FailureMessage     = "Failed to save."
	LoadFailureMessage = "Failed to load entries."
)

// SaveFailure formats a save failure, keeping the "Failed to save" prefix
// the UI keys off.
func SaveFailure(detail string) string {
	if detail == "" {
		return FailureMessage
	}
	return "Failed to save: " + detail
}

// resolver settles one call. The first settle wins; later ones are no-ops.
// Handlers always run through the scheduler.
type resolver struct {
	once      sync.Once
	scheduler Scheduler
	onSuccess SuccessHandler
	onFailure FailureHandler
}

func newResolver(scheduler Scheduler, onSuccess SuccessHandler, onFailure FailureHandler) *resolver {
	return &resolver{scheduler: scheduler, onSuccess: onSuccess, onFailure: onFailure}
}

func (r *resolver) succeed(entries []string) bool {
	won := false
	r.once.Do(func() {
		won = true
		out := make([]string, len(entries))
		copy(out, entries)
		r.scheduler.Schedule(func() {
			if r.onSuccess != nil {
				r.onSuccess(out)
			}
		})
	})
	return won
}

func (r *resolver) fail(message string) bool {
	won := false
	r.once.Do(func() {
		won = true
		r.scheduler.Schedule(func() {
			if r.onFailure != nil {
				r.onFailure(message)
			}
		})
	})
	return won
}

// Runner chains handlers before issuing a call:
//
//	bridge.Run(b).
//		WithSuccessHandler(render).
//		WithFailureHandler(showError).
//		GetEntries()
type Runner struct {
	bridge    Bridge
	onSuccess SuccessHandler
	onFailure FailureHandler
}

func Run(b Bridge) Runner {
	return Runner{bridge: b}
}

func (r Runner) WithSuccessHandler(h SuccessHandler) Runner {
	r.onSuccess = h
	return r
}

func (r Runner) WithFailureHandler(h FailureHandler) Runner {
	r.onFailure = h
	return r
}

func (r Runner) GetEntries() {
	r.bridge.GetEntries(r.onSuccess, r.onFailure)
}

func (r Runner) SaveText(text string) {
	r.bridge.Submit(text, r.onSuccess, r.onFailure)
}
