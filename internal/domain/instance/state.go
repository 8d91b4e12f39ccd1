// Package instance owns the per-instance state and its registry.
package instance

import (
	"sync"

	"github.com/okian/powerstream/internal/broadcast"
	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/internal/domain/samples"
	"github.com/okian/powerstream/internal/domain/timeline"
	"github.com/okian/powerstream/internal/domain/toolchange"
	"github.com/okian/powerstream/internal/domain/types"
	"github.com/okian/powerstream/pkg/metrics"
)

// State is everything known about one instance. All methods are safe for
// concurrent use; they share one lock, which is the ordering domain of the
// instance.
type State struct {
	id string

	mu      sync.Mutex
	epoch   timeline.Epoch
	samples *samples.Store
	tools   *toolchange.Correlator
	subs    *broadcast.Group
}

func newState(id string, bufferLimit int) *State {
	return &State{
		id:      id,
		samples: samples.New(),
		tools:   toolchange.New(),
		subs:    broadcast.NewGroup(id, broadcast.WithBufferLimit(bufferLimit)),
	}
}

// ID returns the instance identifier.
func (st *State) ID() string { return st.id }

// Apply folds one inbound event into the state and publishes the
// resulting events. It returns what was published.
func (st *State) Apply(ev model.Inbound) []model.Outbound {
	st.mu.Lock()
	defer st.mu.Unlock()

	var out []model.Outbound
	switch e := ev.(type) {
	case model.Telemetry:
		rel := st.epoch.Anchor(e.Timestamp)
		out = []model.Outbound{st.samples.Append(e.SignalID, rel, e.Value)}
		metrics.RecordSampleStored()
	case model.ToolIdentity:
		out = st.tools.Identify(e.Tool, st.epoch.Relative(e.Timestamp))
	case model.ToolAttribute:
		out = st.tools.Observe(e.Attribute, e.Value)
	default:
		return nil
	}
	metrics.RecordEventIngested(model.Kind(ev))

	for _, o := range out {
		if tc, ok := o.(model.ToolChange); ok && tc.Past() {
			metrics.RecordToolChangeFinalized()
		}
	}
	st.subs.Publish(out...)
	return out
}

// Subscribe replays the full state to a new subscription and attaches it
// to the live feed in one step.
func (st *State) Subscribe() *broadcast.Subscription {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.subs.Subscribe(sampleEvents(st.samples), st.tools.Replay())
}

// Unsubscribe detaches sub. It is idempotent.
func (st *State) Unsubscribe(sub *broadcast.Subscription) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.subs.Unsubscribe(sub)
}

// CloseSubscribers ends every attached subscription.
func (st *State) CloseSubscribers() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.subs.CloseAll()
}

// Summary reports the current state.
func (st *State) Summary() types.InstanceSummary {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := types.InstanceSummary{
		Instance:      st.id,
		Samples:       st.samples.Counts(),
		Correlator:    st.tools.State().String(),
		HistoryLength: len(st.tools.History()),
		Subscribers:   st.subs.Len(),
	}
	if at, ok := st.epoch.At(); ok {
		s.Epoch = &at
	}
	if cur, ok := st.tools.Current(); ok {
		s.CurrentTool = cur.Tool
	}
	return s
}
