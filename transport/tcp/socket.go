// File: transport/tcp/socket.go
// Author: momentics <momentics@gmail.com>
//
// Socket adapts a plain TCP net.Conn into api.Socket, the raw,
// non-blocking, full-duplex abstraction connfsm.Connection drives.
// Extracting the underlying file descriptor for Reactor registration
// follows the same net.Conn.SyscallConn technique as
// examples/reactor_echo's getFD helper; the actual Read/Write syscalls
// are platform-specific (socket_unix.go, socket_windows.go).
package tcp

import (
	"fmt"
	"net"
	"syscall"

	"github.com/momentics/fsmcached/api"
)

// Socket wraps one accepted TCP connection.
type Socket struct {
	conn net.Conn
	fd   uintptr
}

// NewSocket wraps conn, extracting its raw descriptor. conn must
// expose one via SyscallConn (true for *net.TCPConn).
func NewSocket(conn net.Conn) (*Socket, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, fmt.Errorf("tcp: %T does not expose a raw descriptor", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, err
	}
	var fd uintptr
	ctrlErr := raw.Control(func(f uintptr) { fd = f })
	if ctrlErr != nil {
		return nil, ctrlErr
	}
	return &Socket{conn: conn, fd: fd}, nil
}

// Close releases the underlying connection.
func (s *Socket) Close() error { return s.conn.Close() }

// RawFD returns the descriptor for Reactor registration.
func (s *Socket) RawFD() uintptr { return s.fd }

var _ api.Socket = (*Socket)(nil)
