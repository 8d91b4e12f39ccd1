package toolchange

import (
	"iter"

	"github.com/okian/powerstream/internal/domain/model"
)

// State is the correlator state.
type State uint8

const (
	// Idle means no record is accumulating attributes.
	Idle State = iota
	// Accumulating means an identity arrived and its record is open.
	Accumulating
)

func (s State) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// Correlator is the per-instance tool-change state machine.
//
// A record opens on an identity event and collects attributes until it is
// sealed, either by its radius attribute or by the next identity event.
// A sealed record becomes the committed record; it moves into history
// only when the next record is sealed, so history always lags one tool
// change behind.
//
// Correlator is not safe for concurrent use.
type Correlator struct {
	pending   *Record // open record, nil when Idle
	committed *Record // sealed, not yet in history
	history   []Record
	byTool    map[string][]int
	latest    Attributes
}

// New returns an idle Correlator.
func New() *Correlator {
	return &Correlator{byTool: make(map[string][]int)}
}

// State reports whether a record is accumulating.
func (c *Correlator) State() State {
	if c.pending != nil {
		return Accumulating
	}
	return Idle
}

// Identify handles a tool-identity event and returns the events to
// publish. An open record is sealed with whatever attributes it has.
func (c *Correlator) Identify(tool string, ts float64) []model.Outbound {
	var out []model.Outbound
	if c.pending != nil {
		out = c.seal(out)
	}
	c.pending = &Record{Tool: tool, Timestamp: ts}
	return append(out, c.pending.Active())
}

// Observe handles a tool-attribute event and returns the events to
// publish. The latest value is always kept for hydration; an open record
// also takes the value, and a radius seals it.
func (c *Correlator) Observe(attr model.Attribute, value string) []model.Outbound {
	if !attr.Valid() {
		return nil
	}
	c.latest.set(attr, value)
	out := []model.Outbound{model.AttributeUpdate{ID: attr.SignalID(), Value: value}}

	if c.pending == nil {
		return out
	}
	c.pending.set(attr, value)
	if attr == model.AttrToolRadius {
		out = c.seal(out)
	}
	return out
}

// seal commits the open record, moving the previously committed one into
// history.
func (c *Correlator) seal(out []model.Outbound) []model.Outbound {
	if c.committed != nil {
		prev := *c.committed
		c.byTool[prev.Tool] = append(c.byTool[prev.Tool], len(c.history))
		c.history = append(c.history, prev)
		out = append(out, prev.Past())
	}
	c.committed = c.pending
	c.pending = nil
	return out
}

// Current returns the newest record not yet in history: the open record
// if any, otherwise the committed one. Together, the open and committed
// records are the pending change of the tool-change model. Pending alone
// reports only the open record, so it is false once a radius seals the
// record, while Current still returns it until the next seal moves it
// into history.
func (c *Correlator) Current() (Record, bool) {
	switch {
	case c.pending != nil:
		return *c.pending, true
	case c.committed != nil:
		return *c.committed, true
	default:
		return Record{}, false
	}
}

// Pending returns the open record.
func (c *Correlator) Pending() (Record, bool) {
	if c.pending == nil {
		return Record{}, false
	}
	return *c.pending, true
}

// History returns finalized records in the order they were finalized.
func (c *Correlator) History() []Record {
	out := make([]Record, len(c.history))
	copy(out, c.history)
	return out
}

// HistoryFor returns the finalized records of one tool.
func (c *Correlator) HistoryFor(tool string) []Record {
	idx := c.byTool[tool]
	out := make([]Record, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.history[i])
	}
	return out
}

// Latest returns the most recent value of every attribute.
func (c *Correlator) Latest() Attributes {
	return c.latest
}

// Replay yields the correlator state as events for a new subscriber:
// history as past entries, then the committed and open records as active
// entries, then every set attribute.
func (c *Correlator) Replay() iter.Seq[model.Outbound] {
	return func(yield func(model.Outbound) bool) {
		for _, r := range c.history {
			if !yield(r.Past()) {
				return
			}
		}
		for _, r := range []*Record{c.committed, c.pending} {
			if r != nil && !yield(r.Active()) {
				return
			}
		}
		for _, attr := range model.Attributes {
			if v, ok := c.latest.Get(attr); ok {
				if !yield(model.AttributeUpdate{ID: attr.SignalID(), Value: v}) {
					return
				}
			}
		}
	}
}
