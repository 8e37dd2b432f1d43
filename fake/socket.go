// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations of the core's collaborator interfaces, for
// deterministic unit tests without real sockets or reactors.

package fake

import (
	"io"
	"sync"

	"github.com/momentics/fsmcached/api"
)

// Socket is a controllable, in-memory api.Socket. Reads are served
// from a queue of byte chunks fed by AddRecvChunk (EAGAIN when the
// queue is empty unless EnqueueEOF was called); writes are
// optionally throttled by WriteLimit to reproduce short-write
// scenarios, fail with the error set by SetWriteError, and append to
// Sent for assertions.
type Socket struct {
	mu         sync.Mutex
	recvQueue  [][]byte
	recvEOF    bool
	recvErr    error
	Sent       []byte
	WriteLimit int // 0 means unlimited
	writeErr   error
	closed     bool
}

// NewSocket returns an empty fake socket.
func NewSocket() *Socket {
	return &Socket{}
}

// AddRecvChunk queues data to be returned by a future Read.
func (s *Socket) AddRecvChunk(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	s.recvQueue = append(s.recvQueue, cp)
}

// EnqueueEOF makes Read return io.EOF once the chunk queue drains.
func (s *Socket) EnqueueEOF() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recvEOF = true
}

// SetWriteError makes every subsequent Write fail fatally.
func (s *Socket) SetWriteError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Read implements api.Socket. An empty queue with no EOF/error queued
// yields ErrWouldBlock, matching a non-blocking socket with no data.
func (s *Socket) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recvQueue) == 0 {
		if s.recvErr != nil {
			return 0, s.recvErr
		}
		if s.recvEOF {
			return 0, io.EOF
		}
		return 0, api.ErrWouldBlock
	}
	chunk := s.recvQueue[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		s.recvQueue[0] = chunk[n:]
	} else {
		s.recvQueue = s.recvQueue[1:]
	}
	return n, nil
}

// Write implements api.Socket, honoring WriteLimit as a per-call cap
// to simulate a short write.
func (s *Socket) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, api.ErrSocketClosed
	}
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	n := len(p)
	if s.WriteLimit > 0 && n > s.WriteLimit {
		n = s.WriteLimit
	}
	s.Sent = append(s.Sent, p[:n]...)
	return n, nil
}

// Close implements api.Socket.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// RawFD implements api.Socket; fakes never register with a real reactor.
func (s *Socket) RawFD() uintptr { return 0 }

var _ api.Socket = (*Socket)(nil)
