// Package worker moves event handling off the request path.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/helpdesk/support-desk/internal/events"
	"github.com/helpdesk/support-desk/internal/service"
)

// ErrQueueFull is returned by Publish when the backlog is at capacity.
var ErrQueueFull = errors.New("worker: event queue full")

// ErrStopped is returned by Publish after Stop.
var ErrStopped = errors.New("worker: stopped")

// NotificationWorker is an events.Dispatcher that queues events and hands
// them to the wrapped dispatcher from a fixed pool of goroutines.
type NotificationWorker struct {
	inner   events.Dispatcher
	logger  *zap.Logger
	workers int

	mu      sync.RWMutex
	queue   chan events.Event
	stopped bool
	group   *errgroup.Group
}

// NewNotificationWorker wraps inner. workers and backlog default to 2 and 256.
func NewNotificationWorker(inner events.Dispatcher, workers, backlog int, logger *zap.Logger) *NotificationWorker {
	if workers <= 0 {
		workers = 2
	}
	if backlog <= 0 {
		backlog = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		inner:   inner,
		logger:  logger,
		workers: workers,
		queue:   make(chan events.Event, backlog),
	}
}

// Subscribe registers handler on the wrapped dispatcher.
func (w *NotificationWorker) Subscribe(eventType events.EventType, handler events.EventHandler) {
	w.inner.Subscribe(eventType, handler)
}

// Publish enqueues event without blocking.
func (w *NotificationWorker) Publish(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the pool. Handlers run with ctx, which should outlive requests.
func (w *NotificationWorker) Start(ctx context.Context) {
	group := &errgroup.Group{}
	for i := 0; i < w.workers; i++ {
		group.Go(func() error {
			for event := range w.queue {
				if err := w.inner.Publish(ctx, event); err != nil {
					w.logger.Warn("event handler failed",
						zap.String("event_type", string(event.Type)),
						zap.String("ticket_id", event.TicketID),
						zap.Error(err),
					)
				}
			}
			return nil
		})
	}
	w.mu.Lock()
	w.group = group
	w.mu.Unlock()
}

// Stop rejects new events and waits for the backlog to drain or ctx to end.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.queue)
	group := w.group
	w.mu.Unlock()

	if group == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		_ = group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartNotificationWorker subscribes the notification handlers to w and starts the pool.
func StartNotificationWorker(ctx context.Context, w *NotificationWorker, notifications *service.NotificationService) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	w.Start(ctx)
}
