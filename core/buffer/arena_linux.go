//go:build linux
// +build linux

// File: core/buffer/arena_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux arena allocation via anonymous hugetlb mmap, rounding the
// request up to a 2 MiB hugepage boundary. Falls back to the regular
// heap if the kernel has no hugepages reserved.

package buffer

import "syscall"

const hugePageSize = 2 << 20

type linuxAllocator struct{}

func newLargePageAllocator() largePageAllocator { return linuxAllocator{} }

func (linuxAllocator) Alloc(size, _ int) []byte {
	length := ((size + hugePageSize - 1) / hugePageSize) * hugePageSize
	data, err := syscall.Mmap(-1, 0, length,
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_ANONYMOUS|syscall.MAP_PRIVATE|syscall.MAP_HUGETLB)
	if err != nil {
		return make([]byte, size)
	}
	return data[:size]
}
