// Package samples keeps the per-signal telemetry history of one instance.
package samples

import (
	"iter"

	"github.com/okian/powerstream/internal/domain/model"
)

// point is one stored value; the signal id lives on the series.
type point struct {
	ts    float64
	value float64
}

type series struct {
	id     string
	points []point
}

// Store is an append-only log of samples grouped by signal. It is not safe
// for concurrent use; the owning instance serializes access.
type Store struct {
	bySignal map[string]*series
	order    []*series // signals in first-seen order
	total    int
}

// New returns an empty Store.
func New() *Store {
	return &Store{bySignal: make(map[string]*series)}
}

// Append records a sample. Samples are kept in arrival order without
// deduplication.
func (s *Store) Append(signalID string, ts, value float64) model.Sample {
	sr, ok := s.bySignal[signalID]
	if !ok {
		sr = &series{id: signalID}
		s.bySignal[signalID] = sr
		s.order = append(s.order, sr)
	}
	sr.points = append(sr.points, point{ts: ts, value: value})
	s.total++
	return model.Sample{ID: signalID, Timestamp: ts, Value: value}
}

// Replay yields every stored sample, signal by signal, each signal in
// arrival order. A nil Store yields nothing.
func (s *Store) Replay() iter.Seq[model.Sample] {
	return func(yield func(model.Sample) bool) {
		if s == nil {
			return
		}
		for _, sr := range s.order {
			for _, p := range sr.points {
				if !yield(model.Sample{ID: sr.id, Timestamp: p.ts, Value: p.value}) {
					return
				}
			}
		}
	}
}

// Len returns the total number of stored samples.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return s.total
}

// Counts returns the number of samples per signal.
func (s *Store) Counts() map[string]int {
	out := make(map[string]int)
	if s == nil {
		return out
	}
	for _, sr := range s.order {
		out[sr.id] = len(sr.points)
	}
	return out
}
