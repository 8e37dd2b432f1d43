// File: internal/concurrency/completion.go
// Author: momentics <momentics@gmail.com>
//
// CompletionQueue is the many-producer/single-consumer mailbox a
// back-end worker uses to hand a finished operation back to the
// reactor thread that owns the connection which requested it, without
// the worker ever touching reactor or connection state directly.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
)

// Completion is one finished back-end operation, tagged with the
// identifier the caller used to correlate it back to a connection.
type Completion struct {
	ConnID uint64
	Result any
}

// CompletionQueue buffers completions produced by arbitrary worker
// goroutines for a single consumer (one reactor thread) to drain.
// queue.Queue itself is not safe for concurrent use, hence the mutex.
type CompletionQueue struct {
	mu     sync.Mutex
	q      *queue.Queue
	notify chan struct{}
}

// NewCompletionQueue returns an empty queue.
func NewCompletionQueue() *CompletionQueue {
	return &CompletionQueue{q: queue.New(), notify: make(chan struct{}, 1)}
}

// Push enqueues c and wakes one pending NotifyChan receiver, if any.
func (cq *CompletionQueue) Push(c Completion) {
	cq.mu.Lock()
	cq.q.Add(c)
	cq.mu.Unlock()
	select {
	case cq.notify <- struct{}{}:
	default:
	}
}

// Drain removes and returns every completion currently queued, in
// FIFO order. Returns nil if the queue was empty.
func (cq *CompletionQueue) Drain() []Completion {
	cq.mu.Lock()
	defer cq.mu.Unlock()
	n := cq.q.Length()
	if n == 0 {
		return nil
	}
	out := make([]Completion, 0, n)
	for cq.q.Length() > 0 {
		out = append(out, cq.q.Remove().(Completion))
	}
	return out
}

// NotifyChan signals, without blocking, whenever a Push made the
// queue non-empty — a reactor loop can select on it alongside its
// socket Poll to wake promptly for request_complete delivery.
func (cq *CompletionQueue) NotifyChan() <-chan struct{} { return cq.notify }
