package service

import "errors"

var (
	// ErrEmptyInstance is returned when an instance id is missing.
	ErrEmptyInstance = errors.New("instance id is empty")
	// ErrUnknownEvent is returned for an event type the service cannot apply.
	ErrUnknownEvent = errors.New("unknown event type")
)
