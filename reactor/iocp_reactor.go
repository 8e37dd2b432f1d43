//go:build windows

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor - Windows IOCP implementation.
package reactor

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// fdCallbackEntry stores both the callback and original fd for key mapping.
type fdCallbackEntry struct {
	fd uintptr
	cb FDCallback
}

// iocpReactor implements Reactor using Windows IOCP.
type iocpReactor struct {
	iocp       syscall.Handle
	callbacks  sync.Map // map[uint32]*fdCallbackEntry
	keyCounter uint32
	closed     chan struct{}
}

// NewReactor creates the Windows IOCP-backed Reactor.
func NewReactor() (Reactor, error) {
	iocp, err := syscall.CreateIoCompletionPort(syscall.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("iocp create: %w", err)
	}
	return &iocpReactor{iocp: iocp, closed: make(chan struct{})}, nil
}

func (r *iocpReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	key := atomic.AddUint32(&r.keyCounter, 1)
	handle := syscall.Handle(fd)
	_, err := syscall.CreateIoCompletionPort(handle, r.iocp, uint32(key), 0)
	if err != nil {
		return fmt.Errorf("iocp associate: %w", err)
	}
	r.callbacks.Store(key, &fdCallbackEntry{fd: fd, cb: cb})
	return nil
}

// Modify is a no-op on IOCP: completion ports react to issued I/O,
// not to a watched read/write interest set the way epoll does.
func (r *iocpReactor) Modify(fd uintptr, events FDEventType) error {
	return nil
}

// Unregister removes the mapping that matches fd. Linear scan over
// the callback map; fine for the connection counts this reactor is
// sized for.
func (r *iocpReactor) Unregister(fd uintptr) error {
	var keyToDelete interface{}
	r.callbacks.Range(func(k, v interface{}) bool {
		entry, _ := v.(*fdCallbackEntry)
		if entry != nil && entry.fd == fd {
			keyToDelete = k
			return false
		}
		return true
	})
	if keyToDelete != nil {
		r.callbacks.Delete(keyToDelete)
	}
	return nil
}

func (r *iocpReactor) Poll(timeoutMs int) error {
	var bytes uint32
	var key uint32
	var overlapped *syscall.Overlapped
	timeout := uint32(syscall.INFINITE)
	if timeoutMs >= 0 {
		timeout = uint32(timeoutMs)
	}

	select {
	case <-r.closed:
		return nil
	default:
	}

	err := syscall.GetQueuedCompletionStatus(r.iocp, &bytes, &key, &overlapped, timeout)
	if err != nil {
		if err == syscall.Errno(syscall.WAIT_TIMEOUT) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "iocp poll: %v\n", err)
		return nil
	}

	val, ok := r.callbacks.Load(key)
	if !ok {
		return nil
	}
	entry, _ := val.(*fdCallbackEntry)
	func() {
		defer func() { _ = recover() }()
		entry.cb(entry.fd, EventRead)
	}()
	return nil
}

func (r *iocpReactor) Close() error {
	close(r.closed)
	return syscall.CloseHandle(r.iocp)
}

var _ Reactor = (*iocpReactor)(nil)
