// File: server/config.go
// Author: momentics <momentics@gmail.com>
//
// Config bundles the knobs a memcached-style server typically exposes
// on its command line for the listening socket, back-end worker pool,
// and NUMA placement, trimmed to what this reactor and storage package
// actually take.

package server

// Config configures one Server instance.
type Config struct {
	// Addr is the TCP address to listen on, e.g. ":11311".
	Addr string

	// NumaNode pins reactor-owned buffers (and, where the platform
	// supports it, reactor threads) to this node. Negative disables
	// pinning and lets the runtime choose.
	NumaNode int

	// StorageWorkers sizes the back-end worker pool that drains
	// storage.Store's per-shard queues. <=0 picks a runtime default.
	StorageWorkers int

	// NUMANodeCount is how many NUMA nodes the buffer pool manager
	// should segment pools across. <1 is treated as 1.
	NUMANodeCount int

	// ArenaSize is the capacity of each connection's receive buffer.
	ArenaSize int

	// LinkSize is the capacity of each link in a connection's send
	// chain. <=0 falls back to pool.DefaultLinkSize.
	LinkSize int

	// WorkerCPUs lists CPUs for affinity pinning of the goroutine that
	// calls Listen; the accept loop and the reactor loop run on their
	// own goroutines and are not pinned. Empty disables pinning.
	WorkerCPUs []int

	// PollTimeoutMs bounds how long one Reactor.Poll call blocks
	// before the server loop checks for queued completions and a
	// pending shutdown. 0 or negative picks a small default so
	// completions are not delayed indefinitely on an idle listener.
	PollTimeoutMs int
}

// DefaultArenaSize matches recvbuf's typical working set for a
// pipelined memcached-style client: a handful of commands' worth of
// command lines and payloads.
const DefaultArenaSize = 16 * 1024

// DefaultPollTimeoutMs keeps the server loop responsive to shutdown
// and to storage completions even while no socket is ready.
const DefaultPollTimeoutMs = 50

func (c Config) withDefaults() Config {
	if c.ArenaSize <= 0 {
		c.ArenaSize = DefaultArenaSize
	}
	if c.PollTimeoutMs <= 0 {
		c.PollTimeoutMs = DefaultPollTimeoutMs
	}
	if c.NUMANodeCount < 1 {
		c.NUMANodeCount = 1
	}
	return c
}
