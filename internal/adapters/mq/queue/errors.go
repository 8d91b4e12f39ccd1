package queue

import "errors"

// ErrFull is returned by callers that translate a rejected Enqueue into an
// error.
var ErrFull = errors.New("queue full")
