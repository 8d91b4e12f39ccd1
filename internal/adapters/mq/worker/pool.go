package worker

import (
	"context"
	"runtime"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/powerstream/internal/adapters/mq/queue"
	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/pkg/logger"
	"github.com/okian/powerstream/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Pool owns one queue and one worker per shard. Events are routed by
// instance, so every event of an instance is applied by the same worker in
// the order it was dispatched.
type Pool struct {
	shards        []*queue.InMemoryQueue
	workers       []*InMemoryWorker
	applier       Applier
	queueCapacity int
	logger        logger.Logger
}

// NewPool creates a pool of workerCount shards. A count below one means
// runtime.NumCPU().
func NewPool(workerCount int, applier Applier, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		applier:       applier,
		queueCapacity: defaultQueueCapacity,
		logger:        logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.shards = make([]*queue.InMemoryQueue, workerCount)
	p.workers = make([]*InMemoryWorker, workerCount)
	for i := range workerCount {
		p.shards[i] = queue.NewInMemoryQueue(
			queue.WithCapacity(p.queueCapacity),
			queue.WithShard(strconv.Itoa(i)),
		)
		p.workers[i] = NewInMemoryWorker(p.shards[i], applier,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start runs every worker until ctx ends or the pool is shut down.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Dispatch queues ev on its instance's shard. It returns false when the
// shard is full or closed.
func (p *Pool) Dispatch(ctx context.Context, ev model.Inbound) bool {
	return p.shards[p.shardFor(ev.InstanceID())].Enqueue(ctx, ev)
}

func (p *Pool) shardFor(instance string) int {
	return int(xxhash.Sum64String(instance) % uint64(len(p.shards)))
}

// Len returns the number of events waiting across all shards.
func (p *Pool) Len(ctx context.Context) int {
	n := 0
	for _, q := range p.shards {
		n += q.Len(ctx)
	}
	return n
}

// Capacity returns the total capacity across all shards.
func (p *Pool) Capacity() int { return p.queueCapacity * len(p.shards) }

// Size returns the number of shards.
func (p *Pool) Size() int { return len(p.shards) }

// Shutdown stops accepting events and waits for the workers to drain
// their queues or for ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, q := range p.shards {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return err
		}
	}
	return nil
}
