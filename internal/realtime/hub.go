package realtime

import (
	"context"
	"log/slog"
	"runtime/debug"
)

// DefaultTaskBuffer bounds tasks waiting for the event sequence
const DefaultTaskBuffer = 1024

// Hub runs every task that touches lobby state, one at a time, on a single
// goroutine. Tasks come from connection read pumps, disconnect cleanup and
// fired timers.
type Hub struct {
	tasks   chan func()
	done    chan struct{}
	metrics *Metrics
	logger  *slog.Logger
}

// NewHub creates a Hub. Run must be called for tasks to execute.
func NewHub(buffer int, metrics *Metrics, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultTaskBuffer
	}
	return &Hub{
		tasks:   make(chan func(), buffer),
		done:    make(chan struct{}),
		metrics: metrics,
		logger:  logger.With(slog.String("component", "hub")),
	}
}

// Run executes tasks until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")
	defer close(h.done)
	for {
		select {
		case task := <-h.tasks:
			h.execute(task)
		case <-ctx.Done():
			h.logger.Info("hub stopped", slog.Int("pending_tasks", len(h.tasks)))
			return
		}
	}
}

// execute runs one task, containing any panic to that task
func (h *Hub) execute(task func()) {
	defer func() {
		if err := recover(); err != nil {
			h.metrics.TaskPanics.Add(1)
			h.logger.Error("panic in hub task",
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	task()
}

// Submit queues a task. It reports false if the hub has stopped.
func (h *Hub) Submit(task func()) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.tasks <- task:
		return true
	case <-h.done:
		return false
	}
}

// Do queues a task and waits for it to finish. It must not be called from
// inside a hub task.
func (h *Hub) Do(task func()) bool {
	finished := make(chan struct{})
	if !h.Submit(func() {
		defer close(finished)
		task()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-h.done:
		return false
	}
}
