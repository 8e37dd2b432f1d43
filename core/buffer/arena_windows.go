//go:build windows
// +build windows

// File: core/buffer/arena_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows arena allocation via VirtualAllocExNuma with MEM_LARGE_PAGES.
// Falls back to the regular heap on failure.

package buffer

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type windowsAllocator struct{}

func newLargePageAllocator() largePageAllocator { return windowsAllocator{} }

func (windowsAllocator) Alloc(size, numaNode int) []byte {
	proc := windows.NewLazySystemDLL("kernel32.dll").NewProc("VirtualAllocExNuma")
	ret, _, _ := proc.Call(
		uintptr(windows.CurrentProcess()),
		0,
		uintptr(size),
		uintptr(windows.MEM_RESERVE|windows.MEM_COMMIT|windows.MEM_LARGE_PAGES),
		uintptr(windows.PAGE_READWRITE),
		uintptr(uint32(numaNode)),
	)
	if ret == 0 {
		return make([]byte, size)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ret)), size)
}
