package recvbuf

import (
	"testing"

	"github.com/momentics/fsmcached/core/buffer"
	"github.com/momentics/fsmcached/fake"
)

func newTestBuffer(t *testing.T, capacity int) *Buffer {
	t.Helper()
	return New(buffer.NewArenaPool(capacity), 0)
}

func TestFillAndConsume(t *testing.T) {
	b := newTestBuffer(t, 64)
	sock := fake.NewSocket()
	sock.AddRecvChunk([]byte("get k\r\n"))

	outcome, err := b.Fill(sock)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if outcome != FillOK {
		t.Fatalf("outcome = %v, want FillOK", outcome)
	}
	if b.Used() != 7 {
		t.Fatalf("used = %d, want 7", b.Used())
	}
	if string(b.Bytes()) != "get k\r\n" {
		t.Fatalf("bytes = %q", b.Bytes())
	}

	b.Consume(7)
	if b.Used() != 0 {
		t.Fatalf("used after consume = %d, want 0", b.Used())
	}
}

func TestFillWouldBlockOnEmptySocket(t *testing.T) {
	b := newTestBuffer(t, 64)
	sock := fake.NewSocket()
	outcome, err := b.Fill(sock)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if outcome != FillWouldBlock {
		t.Fatalf("outcome = %v, want FillWouldBlock", outcome)
	}
}

func TestFillEOF(t *testing.T) {
	b := newTestBuffer(t, 64)
	sock := fake.NewSocket()
	sock.EnqueueEOF()
	outcome, err := b.Fill(sock)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if outcome != FillEOF {
		t.Fatalf("outcome = %v, want FillEOF", outcome)
	}
}

func TestFragmentedFillPreservesPrefix(t *testing.T) {
	b := newTestBuffer(t, 64)
	sock := fake.NewSocket()
	sock.AddRecvChunk([]byte("ge"))
	if _, err := b.Fill(sock); err != nil {
		t.Fatalf("Fill 1: %v", err)
	}
	sock.AddRecvChunk([]byte("t k\r"))
	if _, err := b.Fill(sock); err != nil {
		t.Fatalf("Fill 2: %v", err)
	}
	sock.AddRecvChunk([]byte("\n"))
	if _, err := b.Fill(sock); err != nil {
		t.Fatalf("Fill 3: %v", err)
	}
	if string(b.Bytes()) != "get k\r\n" {
		t.Fatalf("bytes = %q, want %q", b.Bytes(), "get k\r\n")
	}
}

func TestConsumePartialShiftsRemainder(t *testing.T) {
	b := newTestBuffer(t, 64)
	sock := fake.NewSocket()
	sock.AddRecvChunk([]byte("get a\r\nget b\r\n"))
	if _, err := b.Fill(sock); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	b.Consume(7) // "get a\r\n"
	if string(b.Bytes()) != "get b\r\n" {
		t.Fatalf("bytes = %q, want %q", b.Bytes(), "get b\r\n")
	}
}

func TestFullReportsCapacityReached(t *testing.T) {
	b := newTestBuffer(t, 4)
	sock := fake.NewSocket()
	sock.AddRecvChunk([]byte("abcd"))
	if _, err := b.Fill(sock); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if !b.Full() {
		t.Fatal("expected buffer to report full at capacity")
	}
}
