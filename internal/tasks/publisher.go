package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-companies/internal/events"
)

const enqueueTimeout = 2 * time.Second

// Enqueuer is the part of *asynq.Client the publisher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// EventPublisher turns domain events into audit:record tasks for the worker.
// Enqueueing happens on its own goroutine so a slow Redis never holds up a
// request. Close waits for in-flight enqueues.
type EventPublisher struct {
	client Enqueuer
	logger *slog.Logger

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

func NewEventPublisher(client Enqueuer, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{client: client, logger: logger}
}

func (p *EventPublisher) Publish(ctx context.Context, event events.Event) {
	task, err := NewAuditRecordTask(event)
	if err != nil {
		p.logger.Error("failed to build audit task", "error", err, "event_id", event.ID)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("publisher closed, dropping event",
			"event_type", event.Type,
			"entity_id", event.EntityID,
		)
		return
	}

	// The request is about to finish; keep its values but not its deadline.
	base := context.WithoutCancel(ctx)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.enqueue(base, task, event)
	}()
}

func (p *EventPublisher) enqueue(ctx context.Context, task *asynq.Task, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()

	if _, err := p.client.EnqueueContext(ctx, task, asynq.TaskID(event.ID)); err != nil {
		p.logger.Error("failed to enqueue audit task",
			"error", err,
			"event_type", event.Type,
			"entity_id", event.EntityID,
		)
	}
}

func (p *EventPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.inflight.Wait()
	return p.client.Close()
}

var _ events.Publisher = (*EventPublisher)(nil)
