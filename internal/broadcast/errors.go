package broadcast

import "errors"

// Sentinel kinds for subscription termination.
var (
	ErrClosed         = errors.New("subscription closed")
	ErrSlowSubscriber = errors.New("subscriber fell behind")
)
