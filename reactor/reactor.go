// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral event reactor interface for cross-platform IO
// multiplexing: one fd-readiness-driven dispatcher per reactor
// thread, delivering EventRead/EventWrite/EventError notifications to
// a per-fd callback.

package reactor

// FDEventType is a bitmask of the readiness conditions a Register or
// Modify call is interested in, and of the conditions a dispatched
// callback observed.
type FDEventType int

const (
	EventRead FDEventType = 1 << iota
	EventWrite
	EventError
)

// FDCallback is invoked from the Poll loop when fd becomes ready for
// one or more of the registered events. It must not block.
type FDCallback func(fd uintptr, events FDEventType)

// Reactor multiplexes readiness notifications for a set of file
// descriptors (Linux epoll fds, Windows socket handles) onto
// per-fd callbacks, driven by repeated Poll calls from one owning
// thread.
type Reactor interface {
	// Register starts watching fd for events, invoking cb on the
	// thread that calls Poll whenever fd becomes ready.
	Register(fd uintptr, events FDEventType, cb FDCallback) error

	// Modify changes the set of events fd is watched for — used to
	// add write-interest only while a connection has an outstanding
	// short write, and drop it once drained, instead of spinning on
	// an always-writable socket.
	Modify(fd uintptr, events FDEventType) error

	// Unregister stops watching fd. Safe to call from within a
	// callback running on the Poll thread.
	Unregister(fd uintptr) error

	// Poll blocks up to timeoutMs (negative means indefinitely) and
	// dispatches every ready fd's callback before returning.
	Poll(timeoutMs int) error

	// Close releases the underlying epoll/IOCP handle.
	Close() error
}
