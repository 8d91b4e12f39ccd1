// Package worker applies queued inbound events to instance state.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/powerstream/internal/adapters/mq/queue"
	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/pkg/logger"
	"github.com/okian/powerstream/pkg/metrics"
)

// Applier folds one inbound event into the service state.
type Applier interface {
	Apply(ctx context.Context, ev model.Inbound) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// Worker processes events from one queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown waits for the worker to drain its queue and stop.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker. A single worker per queue keeps the
// events of that queue in order.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		applier: applier,
		name:    "worker",
		done:    make(chan struct{}),
		logger:  logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, ev); err != nil {
				w.logger.Error(ctx, "error applying event", logger.Error(err))
			}
		}
	}
}

// Shutdown waits for Run to return. The owner closes the queue first.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, ev queue.Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.applier.Apply(ctx, ev); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_error")
		return fmt.Errorf("apply %s for instance %s: %w", model.Kind(ev), ev.InstanceID(), err)
	}
	return nil
}
