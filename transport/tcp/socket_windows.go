//go:build windows

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>
//
// Windows has no direct syscall.Read/Write over a socket handle the
// way Unix does; this reactor's IOCP implementation also does not
// issue overlapped reads/writes (see reactor/iocp_reactor.go), so
// non-blocking I/O here is approximated with a zero-wait deadline on
// the wrapped net.Conn rather than a raw WSARecv/WSASend call.

package tcp

import (
	"net"
	"time"

	"github.com/momentics/fsmcached/api"
)

// Read attempts one read, returning api.ErrWouldBlock if no data is
// immediately available.
func (s *Socket) Read(p []byte) (int, error) {
	_ = s.conn.SetReadDeadline(time.Now())
	n, err := s.conn.Read(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, api.ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

// Write attempts one write, returning api.ErrWouldBlock if the
// connection cannot immediately accept more bytes.
func (s *Socket) Write(p []byte) (int, error) {
	_ = s.conn.SetWriteDeadline(time.Now().Add(time.Millisecond))
	n, err := s.conn.Write(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, api.ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}
