// Package buffer allocates the fixed-capacity scratch arenas recvbuf
// uses to hold a connection's unparsed byte prefix. Unlike pool's
// many small sendbuf links, an arena is one larger, longer-lived
// region per connection, so it is worth backing with hugepages
// (Linux) or large pages (Windows) to cut TLB pressure under many
// concurrent connections; see arena_linux.go, arena_windows.go,
// arena_stub.go.
package buffer
