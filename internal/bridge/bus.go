package bridge

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rorical/RoriLog/internal/eventbus"
	"github.com/Rorical/RoriLog/internal/store"
)

var (
	ErrBridgeClosed = errors.New("bridge closed")
	ErrCallTimeout  = errors.New("call timed out")
)

// BusBridge is the in-process production bridge. Calls travel to the core
// entry service over the event bus and its replies come back through
// HandleCoreEvent, which the dispatcher runs on the control thread.
type BusBridge struct {
	bus       *eventbus.EventBus
	scheduler Scheduler
	timeout   time.Duration

	mu      sync.Mutex
	closed  bool
	pending map[string]*pendingCall
}

type pendingCall struct {
	res      *resolver
	timer    *time.Timer
	describe func(error) string
}

// NewBusBridge returns a bridge over bus. A positive timeout fails calls the
// core has not answered in time.
func NewBusBridge(bus *eventbus.EventBus, scheduler Scheduler, timeout time.Duration) *BusBridge {
	return &BusBridge{
		bus:       bus,
		scheduler: scheduler,
		timeout:   timeout,
		pending:   make(map[string]*pendingCall),
	}
}

func (b *BusBridge) Submit(text string, onSuccess SuccessHandler, onFailure FailureHandler) {
	id := uuid.NewString()
	b.call(id, eventbus.AppendRequestEvent{ID: id, Text: text}, newResolver(b.scheduler, onSuccess, onFailure), describeSaveError)
}

func (b *BusBridge) GetEntries(onSuccess SuccessHandler, onFailure FailureHandler) {
	id := uuid.NewString()
	b.call(id, eventbus.ReadRequestEvent{ID: id}, newResolver(b.scheduler, onSuccess, onFailure), describeLoadError)
}

func (b *BusBridge) call(id string, event eventbus.UIEvent, res *resolver, describe func(error) string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		res.fail(describe(ErrBridgeClosed))
		return
	}
	pc := &pendingCall{res: res, describe: describe}
	if b.timeout > 0 {
		pc.timer = time.AfterFunc(b.timeout, func() { b.expire(id) })
	}
	b.pending[id] = pc
	b.mu.Unlock()

	if err := b.bus.SendToCore(event); err != nil {
		if pc := b.take(id); pc != nil {
			slog.Error("bridge call not delivered", "call", id, "error", err)
			pc.res.fail(pc.describe(err))
		}
	}
}

func (b *BusBridge) take(id string) *pendingCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	pc, ok := b.pending[id]
	if !ok {
		return nil
	}
	delete(b.pending, id)
	if pc.timer != nil {
		pc.timer.Stop()
	}
	return pc
}

func (b *BusBridge) expire(id string) {
	if pc := b.take(id); pc != nil {
		slog.Warn("bridge call timed out", "call", id, "timeout", b.timeout)
		pc.res.fail(pc.describe(ErrCallTimeout))
	}
}

// HandleCoreEvent settles the call a core reply belongs to. Replies for
// calls that already timed out are dropped.
func (b *BusBridge) HandleCoreEvent(event eventbus.CoreEvent) {
	result, ok := event.(eventbus.CallResultEvent)
	if !ok {
		return
	}
	pc := b.take(result.ID)
	if pc == nil {
		slog.Debug("dropping late reply", "call", result.ID)
		return
	}
	if result.Err != nil {
		pc.res.fail(pc.describe(result.Err))
		return
	}
	pc.res.succeed(result.Entries)
}

// InFlight returns the number of calls waiting for a reply.
func (b *BusBridge) InFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close fails every call still waiting and rejects new ones.
func (b *BusBridge) Close() {
	b.mu.Lock()
	b.closed = true
	calls := b.pending
	b.pending = make(map[string]*pendingCall)
	b.mu.Unlock()

	for _, pc := range calls {
		if pc.timer != nil {
			pc.timer.Stop()
		}
		pc.res.fail(pc.describe(ErrBridgeClosed))
	}
}

func describeSaveError(err error) string {
	if store.IsValidationError(err) {
		return SaveFailure(err.Error())
	}
	return FailureMessage
}

func describeLoadError(error) string {
	return LoadFailureMessage
}
