// File: pool/linkpool.go
// Author: momentics <momentics@gmail.com>
//
// LinkPool hands out the fixed-size chunks that sendbuf chains together
// into a connection's outbound byte stream, mirroring the original
// linked_buf_t's fixed link size rather than per-request sizing.

package pool

import (
	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/internal/normalize"
)

// DefaultLinkSize is the per-link payload size: large enough that most
// responses fit in one link, small enough that a slow client holding a
// link back doesn't waste much memory.
const DefaultLinkSize = 4096

// LinkPool allocates fixed-size link buffers on a NUMA-aware pool.
type LinkPool struct {
	mgr      *BufferPoolManager
	linkSize int
}

// NewLinkPool builds a LinkPool of the given link size backed by mgr.
// A zero linkSize falls back to DefaultLinkSize.
func NewLinkPool(mgr *BufferPoolManager, linkSize int) *LinkPool {
	if linkSize <= 0 {
		linkSize = DefaultLinkSize
	}
	return &LinkPool{mgr: mgr, linkSize: linkSize}
}

// Get returns one link-sized buffer preferentially on numaNode. A
// negative numaNode resolves to the calling thread's current node.
func (lp *LinkPool) Get(numaNode int) api.Buffer {
	node := normalize.NUMANodeAuto(numaNode)
	b := lp.mgr.GetPool(lp.linkSize, node).Get(lp.linkSize, node)
	if ab, ok := b.(*arenaBuffer); ok {
		ab.data = ab.data[:lp.linkSize]
	}
	return b
}

// Put returns a link buffer obtained from Get.
func (lp *LinkPool) Put(b api.Buffer) {
	lp.mgr.GetPool(lp.linkSize, b.NUMANode()).Put(b)
}

// LinkSize reports the fixed size of buffers this pool hands out.
func (lp *LinkPool) LinkSize() int { return lp.linkSize }
