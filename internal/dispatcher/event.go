package dispatcher

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriLog/internal/eventbus"
)

// TaskMsg carries a scheduled task into the Bubble Tea update loop, which
// is the only goroutine allowed to touch view state.
type TaskMsg struct {
	Run func()
}

// EventDispatcher is the host's task queue. Any goroutine may Schedule; the
// control thread drains the queue, either through ListenForUIEvents inside
// Bubble Tea or through RunPending / RunNext in tests.
type EventDispatcher struct {
	eventBus *eventbus.EventBus
	ctx      context.Context
	cancel   context.CancelFunc

	mu     sync.Mutex
	tasks  []func()
	signal chan struct{}
	wg     sync.WaitGroup
}

func NewEventDispatcher(eventBus *eventbus.EventBus) *EventDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventDispatcher{
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		signal:   make(chan struct{}, 1),
	}
}

// Schedule queues task to run later on the control thread. It never runs
// task itself and never blocks.
func (ed *EventDispatcher) Schedule(task func()) {
	if task == nil {
		return
	}
	ed.mu.Lock()
	ed.tasks = append(ed.tasks, task)
	ed.mu.Unlock()

	select {
	case ed.signal <- struct{}{}:
	default:
	}
}

func (ed *EventDispatcher) pop() (func(), bool) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if len(ed.tasks) == 0 {
		return nil, false
	}
	task := ed.tasks[0]
	ed.tasks[0] = nil
	ed.tasks = ed.tasks[1:]
	return task, true
}

// Pending returns the number of queued tasks.
func (ed *EventDispatcher) Pending() int {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return len(ed.tasks)
}

// Next blocks until a task is queued or ctx (or the dispatcher) is done.
func (ed *EventDispatcher) Next(ctx context.Context) (func(), error) {
	for {
		if task, ok := ed.pop(); ok {
			return task, nil
		}
		select {
		case <-ed.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ed.ctx.Done():
			return nil, ed.ctx.Err()
		}
	}
}

// RunNext waits for one task and runs it on the calling goroutine.
func (ed *EventDispatcher) RunNext(ctx context.Context) error {
	task, err := ed.Next(ctx)
	if err != nil {
		return err
	}
	task()
	return nil
}

// RunPending runs queued tasks in FIFO order until the queue is empty,
// including tasks scheduled while running. It returns how many ran.
func (ed *EventDispatcher) RunPending() int {
	n := 0
	for {
		task, ok := ed.pop()
		if !ok {
			return n
		}
		task()
		n++
	}
}

// ListenForUIEvents returns a command that delivers the next task as a
// TaskMsg. The model must issue it again after handling each TaskMsg.
func (ed *EventDispatcher) ListenForUIEvents() tea.Cmd {
	return func() tea.Msg {
		task, err := ed.Next(ed.ctx)
		if err != nil {
			return nil
		}
		return TaskMsg{Run: task}
	}
}

// Start pumps core events off the bus and schedules handle for each one.
func (ed *EventDispatcher) Start(handle func(eventbus.CoreEvent)) {
	if ed.eventBus == nil || handle == nil {
		return
	}
	events := ed.eventBus.CoreToUI()
	ed.wg.Add(1)
	go func() {
		defer ed.wg.Done()
		for {
			select {
			case <-ed.ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				ed.Schedule(func() { handle(event) })
			}
		}
	}()
}

func (ed *EventDispatcher) Stop() {
	ed.cancel()
	ed.wg.Wait()
}

func (ed *EventDispatcher) GetEventBus() *eventbus.EventBus {
	return ed.eventBus
}
