// Package broadcast implements replay-then-live fan-out of outbound events
// to the subscribers of one instance.
package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/okian/powerstream/internal/domain/model"
)

// Subscription is one subscriber's hand-off buffer. Publishers append
// without blocking; the consumer drains batches with Next.
type Subscription struct {
	id       string
	instance string
	limit    int // max undrained live events, 0 = unbounded

	mu     sync.Mutex
	queue  []model.Outbound
	live   int
	closed bool
	err    error

	wake chan struct{}
	done chan struct{}
}

func newSubscription(instance string, limit int) *Subscription {
	return &Subscription{
		id:       uuid.NewString(),
		instance: instance,
		limit:    limit,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// ID returns the unique subscription id.
func (s *Subscription) ID() string { return s.id }

// Instance returns the instance the subscription follows.
func (s *Subscription) Instance() string { return s.instance }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns why the subscription ended, or nil while it is open.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// preload queues replay events. They never count toward the limit.
func (s *Subscription) preload(events []model.Outbound) {
	s.mu.Lock()
	s.queue = append(s.queue, events...)
	s.mu.Unlock()
	s.signal()
}

// deliver queues one live event. It returns false if the subscription is
// closed or was closed because it overflowed.
func (s *Subscription) deliver(e model.Outbound) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.limit > 0 && s.live >= s.limit {
		s.mu.Unlock()
		s.close(ErrSlowSubscriber, false)
		return false
	}
	s.queue = append(s.queue, e)
	s.live++
	s.mu.Unlock()
	s.signal()
	return true
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Next blocks until events are available and returns all of them in
// order. Events queued before a graceful close are still returned; after
// that Next returns the termination error, or ctx.Err() when ctx ends first.
func (s *Subscription) Next(ctx context.Context) ([]model.Outbound, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			batch := s.queue
			s.queue = nil
			s.live = 0
			s.mu.Unlock()
			return batch, nil
		}
		if s.closed {
			err := s.err
			s.mu.Unlock()
			return nil, err
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close ends the subscription and discards undrained events. It is
// idempotent. Close does not detach the subscription from its group; the
// next publish drops it.
func (s *Subscription) Close() {
	s.close(ErrClosed, false)
}

// shutdown ends the subscription but leaves queued events for Next.
func (s *Subscription) shutdown() {
	s.close(ErrClosed, true)
}

func (s *Subscription) close(err error, keep bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	if !keep {
		s.queue = nil
	}
	close(s.done)
}
