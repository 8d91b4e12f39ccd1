package broadcast

import (
	"errors"
	"iter"
	"time"

	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/pkg/metrics"
)

// Group is the subscriber set of one instance.
//
// Group is not safe for concurrent use. The owning instance must serialize
// Subscribe, Publish and Unsubscribe so that a replay snapshot and the
// attachment that follows it are atomic with respect to publishes.
type Group struct {
	instance string
	limit    int
	subs     map[string]*Subscription
}

// Option configures a Group.
type Option func(*Group)

// WithBufferLimit caps the live events a subscriber may leave undrained
// before it is disconnected. Zero or negative means unbounded.
func WithBufferLimit(limit int) Option {
	return func(g *Group) {
		if limit > 0 {
			g.limit = limit
		}
	}
}

// NewGroup returns an empty Group for instance.
func NewGroup(instance string, opts ...Option) *Group {
	g := &Group{instance: instance, subs: make(map[string]*Subscription)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Subscribe creates a subscription, queues everything yielded by the
// replay sequences in order and attaches it for live delivery.
func (g *Group) Subscribe(replay ...iter.Seq[model.Outbound]) *Subscription {
	start := time.Now()
	sub := newSubscription(g.instance, g.limit)

	var backlog []model.Outbound
	for _, seq := range replay {
		for e := range seq {
			backlog = append(backlog, e)
		}
	}
	if len(backlog) > 0 {
		sub.preload(backlog)
	}
	g.subs[sub.id] = sub

	metrics.RecordReplay(len(backlog), float64(time.Since(start).Microseconds())/1000)
	metrics.AddSubscribers(1)
	return sub
}

// Publish hands events to every attached subscriber. Subscribers that are
// closed or overflow are detached. It returns the number of deliveries.
func (g *Group) Publish(events ...model.Outbound) int {
	delivered := 0
	for id, sub := range g.subs {
		for _, e := range events {
			if !sub.deliver(e) {
				if errors.Is(sub.Err(), ErrSlowSubscriber) {
					metrics.RecordSlowSubscriber()
				}
				g.detach(id)
				break
			}
			delivered++
		}
	}
	if delivered > 0 {
		metrics.RecordFanout(delivered)
	}
	return delivered
}

// Unsubscribe detaches and closes sub. It is idempotent.
func (g *Group) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	g.detach(sub.id)
	sub.Close()
}

func (g *Group) detach(id string) {
	if _, ok := g.subs[id]; ok {
		delete(g.subs, id)
		metrics.AddSubscribers(-1)
	}
}

// Len returns the number of attached subscribers.
func (g *Group) Len() int { return len(g.subs) }

// CloseAll detaches and closes every subscriber. Events already published
// stay readable through Next before it reports ErrClosed.
func (g *Group) CloseAll() {
	for id, sub := range g.subs {
		g.detach(id)
		sub.shutdown()
	}
}
