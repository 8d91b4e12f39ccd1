package instance

import (
	"iter"

	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/internal/domain/samples"
)

// sampleEvents adapts the sample store replay to outbound events.
func sampleEvents(s *samples.Store) iter.Seq[model.Outbound] {
	return func(yield func(model.Outbound) bool) {
		for smp := range s.Replay() {
			if !yield(smp) {
				return
			}
		}
	}
}
