// File: pool/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concrete api.Buffer backing a single size class within a SlabPool.

package pool

import "github.com/momentics/fsmcached/api"

// arenaBuffer is a fixed-capacity byte region owned by exactly one
// SlabPool at a time. Release returns it to that pool; the buffer must
// not be touched afterward.
type arenaBuffer struct {
	data  []byte
	owner *slabPool
	node  int
}

func (b *arenaBuffer) Bytes() []byte { return b.data }
func (b *arenaBuffer) NUMANode() int { return b.node }

func (b *arenaBuffer) Release() {
	b.owner.put(b)
}

var _ api.Buffer = (*arenaBuffer)(nil)
