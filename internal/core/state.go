package core

import (
	"log/slog"
	"sync"
)

// ServiceState tracks the backend side of the conversation with the UI:
// how many calls are in flight and how earlier calls ended.
type ServiceState struct {
	mu        sync.RWMutex
	inFlight  int
	appended  int
	reads     int
	failed    int
	lastError error
	length    int // Store length after the most recent successful call
}

// Stats is a point-in-time copy of ServiceState.
type Stats struct {
	InFlight  int
	Appended  int
	Reads     int
	Failed    int
	Length    int
	LastError error
}

func NewServiceState() *ServiceState {
	return &ServiceState{}
}

// Atomic operations for event ordering
func (ss *ServiceState) StartCall() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.inFlight++
}

func (ss *ServiceState) FinishAppend(length int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.inFlight--
	ss.appended++
	ss.length = length
	ss.lastError = nil
}

func (ss *ServiceState) FinishRead(length int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.inFlight--
	ss.reads++
	ss.length = length
	ss.lastError = nil
}

func (ss *ServiceState) FinishWithError(err error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.inFlight--
	ss.failed++
	ss.lastError = err
}

func (ss *ServiceState) Snapshot() Stats {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return Stats{
		InFlight:  ss.inFlight,
		Appended:  ss.appended,
		Reads:     ss.reads,
		Failed:    ss.failed,
		Length:    ss.length,
		LastError: ss.lastError,
	}
}

func (s Stats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("appended", s.Appended),
		slog.Int("reads", s.Reads),
		slog.Int("failed", s.Failed),
		slog.Int("length", s.Length),
	}
	if s.LastError != nil {
		attrs = append(attrs, slog.String("last_error", s.LastError.Error()))
	}
	return slog.GroupValue(attrs...)
}
