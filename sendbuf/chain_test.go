package sendbuf

import (
	"testing"

	"github.com/momentics/fsmcached/fake"
	"github.com/momentics/fsmcached/pool"
)

func newTestChain(t *testing.T, linkSize int) *Chain {
	t.Helper()
	mgr := pool.NewBufferPoolManager(1)
	lp := pool.NewLinkPool(mgr, linkSize)
	return NewChain(lp, -1)
}

func TestAppendWithinOneLink(t *testing.T) {
	c := newTestChain(t, 16)
	if err := c.Append([]byte("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c.head != c.tail {
		t.Fatal("expected a single link for a write within link capacity")
	}
	if c.tail.filled != 5 {
		t.Fatalf("filled = %d, want 5", c.tail.filled)
	}
}

func TestAppendGrowsChain(t *testing.T) {
	c := newTestChain(t, 4)
	if err := c.Append([]byte("0123456789")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	n := 0
	for l := c.head; l != nil; l = l.next {
		n++
	}
	if n != 3 {
		t.Fatalf("link count = %d, want 3 (4+4+2 bytes across 4-byte links)", n)
	}
	if c.tail.filled != 2 {
		t.Fatalf("tail filled = %d, want 2", c.tail.filled)
	}
}

func TestPrintfTooLarge(t *testing.T) {
	c := newTestChain(t, 64)
	big := make([]byte, MaxMessageSize)
	for i := range big {
		big[i] = 'x'
	}
	if err := c.Printf("%s", string(big)); err == nil {
		t.Fatal("expected error for over-size formatted message")
	}
}

func TestFlushDrainsInOrder(t *testing.T) {
	c := newTestChain(t, 1024)
	if err := c.Append([]byte("END\r\n")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	sock := fake.NewSocket()
	res, err := c.Flush(sock)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !res.Drained {
		t.Fatal("expected fully drained flush")
	}
	if string(sock.Sent) != "END\r\n" {
		t.Fatalf("sent = %q, want %q", sock.Sent, "END\r\n")
	}
	if c.Outstanding() {
		t.Fatal("expected no outstanding data after drained flush")
	}
}

func TestFlushShortWrite(t *testing.T) {
	c := newTestChain(t, 8192)
	payload := make([]byte, 8192)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	if err := c.Append(payload); err != nil {
		t.Fatalf("Append: %v", err)
	}
	sock := fake.NewSocket()
	sock.WriteLimit = 1024

	sent := 0
	for i := 0; i < 8; i++ {
		res, err := c.Flush(sock)
		if err != nil {
			t.Fatalf("Flush: %v", err)
		}
		sent += 1024
		if i < 7 && res.Drained {
			t.Fatalf("flush %d: expected still-outstanding before all 8 writes", i)
		}
		if i == 7 && !res.Drained {
			t.Fatal("expected drained after eighth writable event")
		}
	}
	if len(sock.Sent) != len(payload) {
		t.Fatalf("sent %d bytes, want %d", len(sock.Sent), len(payload))
	}
}

func TestCollectRemovesDrainedNonTailLinks(t *testing.T) {
	c := newTestChain(t, 4)
	if err := c.Append([]byte("0123456789")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	sock := fake.NewSocket()
	if _, err := c.Flush(sock); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	c.Collect()
	if c.head != c.tail {
		t.Fatal("expected collect to prune fully-drained links down to the tail")
	}
}
