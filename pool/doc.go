// Package pool
// Author: momentics <momentics@gmail.com>
//
// NUMA-aware, lock-free buffer pooling for connection send-buffer
// memory. BufferPoolManager segments fixed-size arenaBuffers by size
// class and NUMA node; LinkPool wraps it with the fixed link size the
// sendbuf chain uses. Cross-platform (Linux/Windows) allocator
// backends live in numa_linux.go, numa_windows.go and numa_stub.go.
// See bufferpool.go, slab_pool.go, linkpool.go, ring.go.
package pool
