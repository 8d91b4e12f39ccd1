// Package timeline converts absolute event times into seconds relative to
// an instance epoch.
package timeline

import "time"

// Epoch anchors relative time for one instance. The zero value is unset.
// Epoch is not safe for concurrent use; callers serialize access per
// instance.
type Epoch struct {
	at  time.Time
	set bool
}

// Anchor sets the epoch to ts if it is not set yet and returns the
// relative time of ts. Only telemetry samples anchor the epoch.
func (e *Epoch) Anchor(ts time.Time) float64 {
	if !e.set {
		e.at = ts
		e.set = true
	}
	return e.Relative(ts)
}

// Relative returns seconds elapsed between the epoch and ts, or 0 while
// the epoch is unset. Times before the epoch clamp to 0.
func (e *Epoch) Relative(ts time.Time) float64 {
	if !e.set {
		return 0
	}
	return max(0, ts.Sub(e.at).Seconds())
}

// At returns the epoch and whether it has been set.
func (e *Epoch) At() (time.Time, bool) {
	return e.at, e.set
}
