//go:build linux

package can

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// Socket is a raw SocketCAN socket bound to one interface.
type Socket struct {
	ifname string

	mu sync.Mutex
	fd int
}

// OpenSocket opens a CAN_RAW socket bound to ifname (e.g. "can0").
// The interface must already be up.
func OpenSocket(ifname string) (*Socket, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("%w: interface %s: %w", ErrOpenFailed, ifname, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("%w: socket: %w", ErrOpenFailed, err)
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd) //nolint:errcheck // already failing
		return nil, fmt.Errorf("%w: bind %s: %w", ErrOpenFailed, ifname, err)
	}

	return &Socket{ifname: ifname, fd: fd}, nil
}

// Interface returns the bound interface name.
func (s *Socket) Interface() string {
	return s.ifname
}

// WriteFrame writes one classic frame.
func (s *Socket) WriteFrame(f Frame) error {
	buf, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fd < 0 {
		return ErrClosed
	}

	n, err := unix.Write(s.fd, buf)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if n != FrameSize {
		return fmt.Errorf("%w: short write %d of %d bytes", ErrWriteFailed, n, FrameSize)
	}
	return nil
}

// Close closes the socket. Safe to call more than once.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}
