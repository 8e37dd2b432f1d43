// File: pool/slab_pool.go
// Package pool implements fixed-size slab allocation per NUMA node.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync/atomic"

	"github.com/momentics/fsmcached/api"
)

const slabFreeListCapacity = 4096

// slabPool hands out fixed-size arenaBuffers for one (size class, NUMA
// node) pair. Freed buffers are kept on a lock-free free list instead
// of being returned to the backing allocator, so steady-state traffic
// never touches NUMAPool after warmup.
type slabPool struct {
	size int
	node int
	raw  *NUMAPool
	free *RingBuffer[*arenaBuffer]

	totalAlloc atomic.Int64
	totalFree  atomic.Int64
}

func newSlabPool(size, node int, useNUMA bool) *slabPool {
	return &slabPool{
		size: size,
		node: node,
		raw:  NewNUMAPool(node, size, useNUMA),
		free: NewRingBuffer[*arenaBuffer](slabFreeListCapacity),
	}
}

// Get ignores its arguments beyond sanity: a slabPool is already
// dedicated to one size class and NUMA node by construction.
func (sp *slabPool) Get(_ int, _ int) api.Buffer {
	if buf, ok := sp.free.Dequeue(); ok {
		buf.data = buf.data[:sp.size]
		return buf
	}
	sp.totalAlloc.Add(1)
	return &arenaBuffer{
		data:  sp.raw.Get()[:sp.size],
		owner: sp,
		node:  sp.node,
	}
}

func (sp *slabPool) put(b *arenaBuffer) {
	sp.totalFree.Add(1)
	if !sp.free.Enqueue(b) {
		sp.raw.Put(b.data)
	}
}

func (sp *slabPool) Put(b api.Buffer) {
	if ab, ok := b.(*arenaBuffer); ok && ab.owner == sp {
		sp.put(ab)
	}
}

func (sp *slabPool) Stats() api.BufferPoolStats {
	alloc := sp.totalAlloc.Load()
	free := sp.totalFree.Load()
	return api.BufferPoolStats{
		TotalAlloc: alloc,
		TotalFree:  free,
		InUse:      alloc - free,
		NUMAStats:  map[int]int64{sp.node: alloc},
	}
}

var _ api.BufferPool = (*slabPool)(nil)
