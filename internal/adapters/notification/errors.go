package notification

import "errors"

var (
	// ErrMalformed is returned when the notification body is not valid JSON.
	ErrMalformed = errors.New("malformed notification")
	// ErrNoInstance is returned when the notification names no instance.
	ErrNoInstance = errors.New("notification has no instance")
)
