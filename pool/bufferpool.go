// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
//
// Cross-platform NUMA-aware BufferPool manager. Pools are segmented by
// (size class, NUMA node); size classes are rounded up to the next
// power of two so a handful of slabPools cover the link sizes a
// connection's sendbuf will ask for (recvbuf arenas come from
// core/buffer instead).

package pool

import (
	"sync"

	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/internal/normalize"
)

// BufferPoolManager provides NUMA-segmented, size-classed pools.
type BufferPoolManager struct {
	mu      sync.RWMutex
	pools   map[bufferPoolKey]*slabPool
	nodes   int
	useNUMA bool
}

type bufferPoolKey struct {
	node int
	size int
}

// NewBufferPoolManager creates a manager aware of nodeCount NUMA nodes.
// nodeCount of 0 or less is treated as 1 (single-node fallback).
func NewBufferPoolManager(nodeCount int) *BufferPoolManager {
	if nodeCount < 1 {
		nodeCount = 1
	}
	return &BufferPoolManager{
		pools:   make(map[bufferPoolKey]*slabPool),
		nodes:   nodeCount,
		useNUMA: true,
	}
}

// GetPool obtains or creates the BufferPool serving the size class that
// covers size on the node closest to numaPreferred. numaPreferred of -1
// selects node 0.
func (m *BufferPoolManager) GetPool(size, numaPreferred int) api.BufferPool {
	node := normalize.NUMANode(numaPreferred, m.nodes)
	class := sizeClass(size)
	key := bufferPoolKey{node: node, size: class}

	m.mu.RLock()
	sp, ok := m.pools[key]
	m.mu.RUnlock()
	if ok {
		return sp
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sp, ok := m.pools[key]; ok {
		return sp
	}
	sp = newSlabPool(class, node, m.useNUMA)
	m.pools[key] = sp
	return sp
}

// sizeClass rounds size up to the next power of two, with a floor of
// 64 bytes to keep the number of distinct classes bounded.
func sizeClass(size int) int {
	const floor = 64
	if size <= floor {
		return floor
	}
	c := floor
	for c < size {
		c <<= 1
	}
	return c
}
