// File: recvbuf/buffer.go
// Package recvbuf implements the connection's receive scratch buffer:
// a fixed-capacity byte array holding a possibly-pipelined prefix of
// the inbound stream, with in-place consumption of parsed prefixes.
//
// Follows a classic conn_fsm rbuf/nrbuf fill-and-consume discipline
// (fill_rbuf and consume): a single non-blocking read per Fill call
// into the free tail region, and consume(n) shifting the remainder
// down by memmove. Arena allocation is delegated to
// core/buffer.ArenaPool instead of a fixed array, so capacity is
// NUMA-local and reusable across connections.
// Author: momentics <momentics@gmail.com>
package recvbuf

import (
	"errors"
	"io"

	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/core/buffer"
	"github.com/momentics/fsmcached/handler"
)

// ErrRequestTooLarge names the case where a partial_packet verdict
// arrives with used==capacity: the buffer filled completely without
// the handler ever seeing a complete request. Fill never returns it,
// and neither does the connection FSM, which on that case tears the
// connection down and reports VerdictQuit without an error value.
var ErrRequestTooLarge = errors.New("recvbuf: request too large for buffer capacity")

// FillOutcome reports what one Fill call accomplished.
type FillOutcome int

const (
	FillOK FillOutcome = iota
	FillWouldBlock
	FillEOF
)

// Buffer holds the unparsed prefix of one connection's inbound stream.
type Buffer struct {
	arena api.Buffer
	used  int
}

// New allocates a Buffer backed by an arena from pool, preferentially
// on numaNode.
func New(pool *buffer.ArenaPool, numaNode int) *Buffer {
	return &Buffer{arena: pool.Get(0, numaNode)}
}

func (b *Buffer) capacity() int { return len(b.arena.Bytes()) }

// Used reports how many unparsed bytes are currently buffered.
func (b *Buffer) Used() int { return b.used }

// Full reports whether the buffer has no room left for Fill.
func (b *Buffer) Full() bool { return b.used >= b.capacity() }

// Bytes returns the current unparsed prefix [0, used).
func (b *Buffer) Bytes() []byte { return b.arena.Bytes()[:b.used] }

// Fill performs one non-blocking read into the free tail region.
func (b *Buffer) Fill(sock api.Socket) (FillOutcome, error) {
	free := b.arena.Bytes()[b.used:]
	if len(free) == 0 {
		return FillOK, nil
	}
	n, err := sock.Read(free)
	if n > 0 {
		b.used += n
	}
	if err != nil {
		if errors.Is(err, api.ErrWouldBlock) {
			return FillWouldBlock, nil
		}
		if errors.Is(err, io.EOF) {
			return FillEOF, nil
		}
		return FillOK, err
	}
	if n == 0 {
		return FillEOF, nil
	}
	return FillOK, nil
}

// Consume removes the first n bytes of the unparsed prefix, shifting
// the remainder down to the start of the arena.
func (b *Buffer) Consume(n int) {
	if n <= 0 {
		return
	}
	if n > b.used {
		n = b.used
	}
	data := b.arena.Bytes()
	copy(data, data[n:b.used])
	b.used -= n
}

// Release returns the backing arena to its pool. The Buffer must not
// be used afterward.
func (b *Buffer) Release() {
	b.arena.Release()
	b.used = 0
}

var _ handler.RbufView = (*Buffer)(nil)
