//go:build !linux

package can

// Socket is unavailable without SocketCAN.
type Socket struct{}

// OpenSocket always returns ErrUnsupported.
func OpenSocket(string) (*Socket, error) {
	return nil, ErrUnsupported
}

// Interface returns "".
func (*Socket) Interface() string { return "" }

// WriteFrame always returns ErrUnsupported.
func (*Socket) WriteFrame(Frame) error { return ErrUnsupported }

// Close is a no-op.
func (*Socket) Close() error { return nil }
