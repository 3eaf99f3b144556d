package core

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Rorical/RoriLog/internal/eventbus"
	"github.com/Rorical/RoriLog/internal/store"
)

// EntryService owns the entry store on the backend side of the event bus.
// Requests are handled one at a time in arrival order, which serializes
// appends and keeps replies in request order.
type EntryService struct {
	store    *store.EntryStore
	state    *ServiceState
	eventBus *eventbus.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewEntryService(st *store.EntryStore, eb *eventbus.EventBus) *EntryService {
	ctx, cancel := context.WithCancel(context.Background())
	return &EntryService{
		store:    st,
		state:    NewServiceState(),
		eventBus: eb,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start makes sure the log exists, then runs the event loop in a goroutine.
func (es *EntryService) Start() error {
	if err := es.store.EnsureInitialized(es.ctx); err != nil {
		return err
	}
	es.wg.Add(1)
	go es.eventLoop()
	return nil
}

// Stop ends the event loop and logs what the service handled.
func (es *EntryService) Stop() {
	es.cancel()
	es.wg.Wait()
	slog.Info("entry service stopped", "stats", es.state.Snapshot())
}

func (es *EntryService) State() *ServiceState {
	return es.state
}

func (es *EntryService) eventLoop() {
	defer es.wg.Done()
	for {
		select {
		case <-es.ctx.Done():
			return
		case event, ok := <-es.eventBus.UIToCore():
			if !ok {
				return
			}
			es.handleUIEvent(event)
		}
	}
}

func (es *EntryService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.AppendRequestEvent:
		es.processAppend(e)
	case eventbus.ReadRequestEvent:
		es.processRead(e)
	default:
		slog.Warn("ignoring unknown UI event", "type", event)
	}
}

func (es *EntryService) processAppend(e eventbus.AppendRequestEvent) {
	es.state.StartCall()
	entries, err := es.store.Append(es.ctx, e.Text)
	if err != nil {
		es.state.FinishWithError(err)
		slog.Error("append failed", "call", e.ID, "error", err)
		es.reply(eventbus.CallResultEvent{ID: e.ID, Err: err})
		return
	}
	es.state.FinishAppend(len(entries))
	slog.Debug("append committed", "call", e.ID, "entries", len(entries))
	es.reply(eventbus.CallResultEvent{ID: e.ID, Entries: entries})
}

func (es *EntryService) processRead(e eventbus.ReadRequestEvent) {
	es.state.StartCall()
	entries, err := es.store.ReadAll(es.ctx)
	if err != nil {
		es.state.FinishWithError(err)
		slog.Error("read failed", "call", e.ID, "error", err)
		es.reply(eventbus.CallResultEvent{ID: e.ID, Err: err})
		return
	}
	es.state.FinishRead(len(entries))
	es.reply(eventbus.CallResultEvent{ID: e.ID, Entries: entries})
}

func (es *EntryService) reply(result eventbus.CallResultEvent) {
	if err := es.eventBus.SendToUI(result); err != nil {
		// The bridge times the call out; nothing else to do here.
		slog.Error("error sending result to UI", "call", result.ID, "error", err)
	}
}
