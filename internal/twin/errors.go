package twin

import "errors"

// Domain-specific errors for twin operations.
var (
	// ErrInvalidValue is returned when an actuation value is not lock or unlock.
	ErrInvalidValue = errors.New("twin: invalid actuation value")

	// ErrNoPublisher is returned when the service has no broker publisher.
	ErrNoPublisher = errors.New("twin: no publisher configured")
)
