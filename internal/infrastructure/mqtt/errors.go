package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when an operation needs a live broker session.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when the session cannot be started.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrMissingCredentials is returned when a TLS credential file does not exist.
	// The error message names the configuration keys to check.
	ErrMissingCredentials = errors.New("mqtt: missing TLS files")

	// ErrInvalidCredentials is returned when a credential file exists but
	// cannot be read or parsed.
	ErrInvalidCredentials = errors.New("mqtt: invalid TLS credentials")

	// ErrSessionNotStarted is returned when the session is used before Start.
	ErrSessionNotStarted = errors.New("mqtt: session not started")

	// ErrSessionClosed is returned when the session is used after Stop.
	ErrSessionClosed = errors.New("mqtt: session closed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned for an empty topic or a misplaced wildcard.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
