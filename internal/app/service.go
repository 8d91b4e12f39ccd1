// Package service provides the core service that the delivery and
// ingestion adapters depend on.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	workerpool "github.com/okian/powerstream/internal/adapters/mq/worker"
	"github.com/okian/powerstream/internal/broadcast"
	"github.com/okian/powerstream/internal/domain/instance"
	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/internal/domain/types"
	"github.com/okian/powerstream/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Service owns the instance registry and the ingestion worker pool.
type Service struct {
	mu sync.RWMutex

	sessionID string
	registry  *instance.Registry
	pool      *workerpool.Pool

	workerCount      int
	queueSize        int
	subscriberBuffer int

	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion shards, one worker each.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of each shard queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSubscriberBuffer caps undrained live events per subscriber.
func WithSubscriberBuffer(limit int) Option {
	return func(s *Service) {
		if limit >= 0 {
			s.subscriberBuffer = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. The registry is usable immediately; Start is
// only needed for asynchronous ingestion.
func New(opts ...Option) *Service {
	s := &Service{
		sessionID:   uuid.NewString(),
		workerCount: runtime.NumCPU(),
		queueSize:   10000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.registry = instance.NewRegistry(instance.WithSubscriberBuffer(s.subscriberBuffer))
	return s
}

// SessionID identifies this process run to subscribers.
func (s *Service) SessionID() string { return s.sessionID }

// Start launches the ingestion workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.pool = workerpool.NewPool(s.workerCount, s,
		workerpool.WithQueueCapacity(s.queueSize),
		workerpool.WithPoolLogger(s.logger.Named("workers")),
	)
	// Workers outlive the start request; Stop ends them by closing queues.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "powerstream service started",
		logger.String("session", s.sessionID),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("subscriberBuffer", s.subscriberBuffer),
	)
	return nil
}

// Stop drains queued events and closes every subscription.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping powerstream service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.registry.CloseSubscribers()

	s.started = false
	s.logger.Info(ctx, "powerstream service stopped")
}

// Apply folds ev into its instance state synchronously.
func (s *Service) Apply(_ context.Context, ev model.Inbound) error {
	if ev == nil {
		return ErrUnknownEvent
	}
	if ev.InstanceID() == "" {
		return ErrEmptyInstance
	}
	if model.Kind(ev) == "unknown" {
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	s.registry.Get(ev.InstanceID()).Apply(ev)
	return nil
}

// Ingest is the synchronous ingestion entry point.
func (s *Service) Ingest(ctx context.Context, ev model.Inbound) error {
	return s.Apply(ctx, ev)
}

// Enqueue hands ev to its instance's worker. It returns false when the
// service is not started or the shard queue is full.
func (s *Service) Enqueue(ctx context.Context, ev model.Inbound) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || ev == nil || ev.InstanceID() == "" {
		return false
	}
	return s.pool.Dispatch(ctx, ev)
}

// Subscribe replays the instance's state to a new subscription and
// attaches it for live delivery.
func (s *Service) Subscribe(ctx context.Context, instanceID string) (*broadcast.Subscription, error) {
	if instanceID == "" {
		return nil, ErrEmptyInstance
	}
	sub := s.registry.Get(instanceID).Subscribe()
	s.logger.Debug(ctx, "subscriber attached",
		logger.String("instance", instanceID),
		logger.String("subscription", sub.ID()),
	)
	return sub, nil
}

// Unsubscribe detaches sub. It is idempotent and accepts nil.
func (s *Service) Unsubscribe(sub *broadcast.Subscription) {
	if sub == nil {
		return
	}
	if st, ok := s.registry.Lookup(sub.Instance()); ok {
		st.Unsubscribe(sub)
		return
	}
	sub.Close()
}

// Instances summarizes every known instance ordered by id.
func (s *Service) Instances(_ context.Context) []types.InstanceSummary {
	states := s.registry.All()
	out := make([]types.InstanceSummary, 0, len(states))
	for _, st := range states {
		out = append(out, st.Summary())
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"sessionId":        s.sessionID,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"subscriberBuffer": s.subscriberBuffer,
		"instances":        s.registry.Len(),
	}
	if s.started {
		stats["queueLength"] = s.pool.Len(context.Background())
		stats["queueCapacity"] = s.pool.Capacity()
		stats["uptimeSeconds"] = time.Since(s.startedAt).Seconds()
	}

	subscribers := 0
	for _, st := range s.registry.All() {
		subscribers += st.Summary().Subscribers
	}
	stats["subscribers"] = subscribers
	return stats
}
