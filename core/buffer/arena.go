// File: core/buffer/arena.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/internal/normalize"
)

// largePageAllocator backs an ArenaPool with platform-specific large
// or huge page allocation, falling back to the regular heap.
type largePageAllocator interface {
	Alloc(size, numaNode int) []byte
}

// Arena is a fixed-capacity byte region handed to one recvbuf at a
// time. Release returns it to its owning pool.
type Arena struct {
	data []byte
	pool *ArenaPool
	node int
}

func (a *Arena) Bytes() []byte { return a.data }
func (a *Arena) NUMANode() int { return a.node }
func (a *Arena) Release()      { a.pool.put(a) }

var _ api.Buffer = (*Arena)(nil)

// ArenaPool hands out fixed-size Arenas, reusing released ones from a
// free list before falling back to the platform allocator.
type ArenaPool struct {
	size  int
	alloc largePageAllocator
	mu    sync.Mutex
	free  []*Arena

	totalAlloc atomic.Int64
	totalFree  atomic.Int64
}

// NewArenaPool builds a pool of arenas of the given capacity.
func NewArenaPool(size int) *ArenaPool {
	return &ArenaPool{size: size, alloc: newLargePageAllocator()}
}

// Get returns one arena, preferentially allocated on numaPreferred.
// A negative numaPreferred resolves to the calling thread's node.
func (p *ArenaPool) Get(_ int, numaPreferred int) api.Buffer {
	node := normalize.NUMANodeAuto(numaPreferred)

	p.mu.Lock()
	if n := len(p.free); n > 0 {
		a := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		a.node = node
		return a
	}
	p.mu.Unlock()

	p.totalAlloc.Add(1)
	return &Arena{data: p.alloc.Alloc(p.size, node), pool: p, node: node}
}

func (p *ArenaPool) put(a *Arena) {
	p.totalFree.Add(1)
	p.mu.Lock()
	p.free = append(p.free, a)
	p.mu.Unlock()
}

// Put returns an arena obtained from Get.
func (p *ArenaPool) Put(b api.Buffer) {
	if a, ok := b.(*Arena); ok && a.pool == p {
		p.put(a)
	}
}

func (p *ArenaPool) Stats() api.BufferPoolStats {
	alloc := p.totalAlloc.Load()
	free := p.totalFree.Load()
	return api.BufferPoolStats{TotalAlloc: alloc, TotalFree: free, InUse: alloc - free}
}

var _ api.BufferPool = (*ArenaPool)(nil)
