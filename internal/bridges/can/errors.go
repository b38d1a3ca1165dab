package can

import "errors"

// Domain errors for the CAN bridge package.
var (
	// ErrUnsupported is returned by OpenSocket on platforms without SocketCAN.
	ErrUnsupported = errors.New("can: socketcan not supported on this platform")

	// ErrOpenFailed is returned when the CAN socket cannot be opened or bound.
	ErrOpenFailed = errors.New("can: open failed")

	// ErrWriteFailed is returned when a frame cannot be written to the bus.
	ErrWriteFailed = errors.New("can: write failed")

	// ErrClosed is returned when writing to a closed socket.
	ErrClosed = errors.New("can: socket closed")

	// ErrInvalidFrame is returned for an out-of-range ID or oversized data.
	ErrInvalidFrame = errors.New("can: invalid frame")

	// ErrUnknownCommand is returned for payloads other than lock and unlock.
	ErrUnknownCommand = errors.New("can: unknown command")
)
