//go:build linux || darwin

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"syscall"

	"github.com/momentics/fsmcached/api"
)

// Read performs one non-blocking read on the raw descriptor.
func (s *Socket) Read(p []byte) (int, error) {
	n, err := syscall.Read(int(s.fd), p)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, api.ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// Write performs one non-blocking write on the raw descriptor.
func (s *Socket) Write(p []byte) (int, error) {
	n, err := syscall.Write(int(s.fd), p)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, api.ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}
