// File: sendbuf/chain.go
// Package sendbuf implements the connection's chained outbound byte
// stream: an append-only singly linked chain of fixed-size links with
// incremental non-blocking flush and garbage collection of drained
// links.
//
// Modeled on a classic linked_buf_t: grow, append, printf, outstanding,
// send and garbage_collect map onto grow/Append/Printf/Outstanding/
// Flush/Collect below. An intrusive linked list with self-deleting
// nodes becomes an owning Chain that mutates its own head/tail
// pointers; callers never hold a stale link.
// Author: momentics <momentics@gmail.com>
package sendbuf

import (
	"errors"
	"fmt"

	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/handler"
	"github.com/momentics/fsmcached/pool"
)

// MaxMessageSize bounds one Printf call, matching the original's
// MAX_MESSAGE_SIZE guard on vsnprintf. Exceeding it is fatal to the
// connection, not silently truncated.
const MaxMessageSize = 500

type link struct {
	buf    api.Buffer
	filled int
	sent   int
	next   *link
}

func (l *link) capacity() int { return len(l.buf.Bytes()) }
func (l *link) drained() bool { return l.sent == l.filled }

// Chain is the connection's owned send buffer. The zero value is not
// usable; construct with NewChain.
type Chain struct {
	pool *pool.LinkPool
	node int
	head *link
	tail *link
}

// NewChain allocates a chain with one empty link, preferentially on
// numaNode. An empty head link with filled==0 is the idle
// representation — the chain is never nil while a connection lives.
func NewChain(lp *pool.LinkPool, numaNode int) *Chain {
	l := &link{buf: lp.Get(numaNode)}
	return &Chain{pool: lp, node: numaNode, head: l, tail: l}
}

func (c *Chain) grow() {
	nl := &link{buf: c.pool.Get(c.node)}
	c.tail.next = nl
	c.tail = nl
}

// Append copies p onto the end of the chain, growing it as needed.
// It never fails for lack of space; allocator exhaustion, which is
// fatal for the connection, is the only failure mode.
func (c *Chain) Append(p []byte) error {
	for len(p) > 0 {
		room := c.tail.capacity() - c.tail.filled
		if room == 0 {
			c.grow()
			room = c.tail.capacity()
		}
		n := len(p)
		if n > room {
			n = room
		}
		copy(c.tail.buf.Bytes()[c.tail.filled:], p[:n])
		c.tail.filled += n
		p = p[n:]
	}
	return nil
}

// Printf formats into the chain, bounded by MaxMessageSize.
func (c *Chain) Printf(format string, args ...any) error {
	s := fmt.Sprintf(format, args...)
	if len(s) >= MaxMessageSize {
		return fmt.Errorf("sendbuf: formatted message too large (%d >= %d bytes)", len(s), MaxMessageSize)
	}
	return c.Append([]byte(s))
}

// FlushResult reports how much progress Flush made.
type FlushResult struct {
	Drained          bool
	StillOutstanding bool
}

// Flush writes the unsent range of each link in order, starting at
// the head, stopping at the first link that cannot be fully drained.
// The tail link is compacted back to empty in place on full drain so
// later Append calls need no new allocation.
func (c *Chain) Flush(sock api.Socket) (FlushResult, error) {
	cur := c.head
	for cur != nil {
		if cur.sent < cur.filled {
			n, err := sock.Write(cur.buf.Bytes()[cur.sent:cur.filled])
			if n > 0 {
				cur.sent += n
			}
			if err != nil {
				if errors.Is(err, api.ErrWouldBlock) {
					return FlushResult{StillOutstanding: true}, nil
				}
				return FlushResult{StillOutstanding: true}, err
			}
			if cur.sent < cur.filled {
				// Short write: the kernel send buffer is likely full;
				// stop here rather than spinning on another syscall.
				return FlushResult{StillOutstanding: true}, nil
			}
		}
		if cur == c.tail {
			cur.filled = 0
			cur.sent = 0
			return FlushResult{Drained: true}, nil
		}
		cur = cur.next
	}
	return FlushResult{Drained: true}, nil
}

// Outstanding reports whether any link still has unsent bytes.
func (c *Chain) Outstanding() bool {
	for l := c.head; l != nil; l = l.next {
		if !l.drained() {
			return true
		}
	}
	return false
}

// Collect releases fully drained non-tail links and advances the
// head past them. Every non-tail link is filled to capacity by
// construction (Append only grows when the tail is full), so a
// drained non-tail link can never gain more data and is safe to
// remove unconditionally.
func (c *Chain) Collect() {
	for c.head != c.tail && c.head.drained() {
		old := c.head
		c.head = c.head.next
		old.buf.Release()
	}
}

// Close releases every link in the chain. Safe to call once, at
// connection teardown.
func (c *Chain) Close() {
	for l := c.head; l != nil; {
		next := l.next
		l.buf.Release()
		l = next
	}
	c.head, c.tail = nil, nil
}

var _ handler.SbufAppender = (*Chain)(nil)
