//go:build !linux && !windows
// +build !linux,!windows

// File: core/buffer/arena_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

type stubAllocator struct{}

func newLargePageAllocator() largePageAllocator { return stubAllocator{} }

func (stubAllocator) Alloc(size, _ int) []byte { return make([]byte, size) }
