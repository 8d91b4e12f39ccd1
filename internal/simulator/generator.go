package simulator

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/okian/powerstream/internal/adapters/notification"
	"github.com/okian/powerstream/internal/domain/model"
)

// Constants for generated values.
const (
	powerMinWatts   = 50.0
	powerRangeWatts = 4000.0
	lengthMinMM     = 40.0
	lengthRangeMM   = 160.0
	radiusMinMM     = 1.0
	radiusRangeMM   = 15.0
)

// Session is the ordered traffic of one instance.
type Session struct {
	Instance    string
	Batches     [][]notification.Entry
	Samples     int
	ToolChanges int
}

// ExpectedPast is the number of finalized tool changes a complete replay holds.
func (s Session) ExpectedPast() int {
	if s.ToolChanges == 0 {
		return 0
	}
	return s.ToolChanges - 1
}

// Generate builds one session per instance. Each sampling step becomes one
// notification; a tool change is the identity followed by its attributes
// in the same notification, ahead of the step's samples.
func Generate(cfg *Config, start time.Time) ([]Session, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	sessions := make([]Session, 0, cfg.Instances)
	for i := 0; i < cfg.Instances; i++ {
		s, err := generateSession(cfg, rng, strconv.Itoa(i+1), start)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func generateSession(cfg *Config, rng *rand.Rand, instance string, start time.Time) (Session, error) {
	s := Session{Instance: instance, Batches: make([][]notification.Entry, 0, cfg.Samples)}
	for step := 0; step < cfg.Samples; step++ {
		ts := start.Add(time.Duration(step) * cfg.Cadence)
		batch := make([]notification.Entry, 0, len(cfg.Axes)+len(model.Attributes)+1)

		if cfg.ToolEvery > 0 && step%cfg.ToolEvery == 0 {
			s.ToolChanges++
			change, err := toolChange(rng, s.ToolChanges, ts)
			if err != nil {
				return Session{}, err
			}
			batch = append(batch, change...)
		}

		for _, axis := range cfg.Axes {
			watts := powerMinWatts + rng.Float64()*powerRangeWatts
			e, err := notification.NewEntry(cfg.Prefix+axis, watts, ts)
			if err != nil {
				return Session{}, fmt.Errorf("sample %s/%d: %w", instance, step, err)
			}
			batch = append(batch, e)
			s.Samples++
		}
		s.Batches = append(s.Batches, batch)
	}
	return s, nil
}

func toolChange(rng *rand.Rand, n int, ts time.Time) ([]notification.Entry, error) {
	values := []struct {
		id    string
		value any
	}{
		{model.SignalToolIdent, "T" + strconv.Itoa(n)},
		{model.AttrTNumber.SignalID(), strconv.Itoa(n)},
		{model.AttrToolLength1.SignalID(), roundTo(lengthMinMM+rng.Float64()*lengthRangeMM, 2)},
		{model.AttrToolRadius.SignalID(), roundTo(radiusMinMM+rng.Float64()*radiusRangeMM, 2)},
	}
	out := make([]notification.Entry, 0, len(values))
	for _, v := range values {
		e, err := notification.NewEntry(v.id, v.value, ts)
		if err != nil {
			return nil, fmt.Errorf("tool change %d: %w", n, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func roundTo(v float64, places int) float64 {
	p, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return p
}
