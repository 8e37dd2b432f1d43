//go:build linux && !cgo
// +build linux,!cgo

// File: pool/numapool_linux_nocgo.go
// Author: momentics <momentics@gmail.com>
//
// Linux NUMA allocator factory fallback for builds with CGO disabled.

package pool

// createNUMAAllocator returns a stub allocator on Linux when CGO is unavailable.
func createNUMAAllocator() NUMAAllocator {
	return newStubNUMAAllocator()
}
