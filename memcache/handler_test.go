package memcache

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/momentics/fsmcached/handler"
	"github.com/momentics/fsmcached/storage"
)

type fakeRbuf struct{ data []byte }

func (f *fakeRbuf) Bytes() []byte { return f.data }
func (f *fakeRbuf) Consume(n int) { f.data = f.data[n:] }

type fakeSbuf struct{ buf bytes.Buffer }

func (f *fakeSbuf) Append(p []byte) error { f.buf.Write(p); return nil }
func (f *fakeSbuf) Printf(format string, args ...any) error {
	fmt.Fprintf(&f.buf, format, args...)
	return nil
}

type fakeBackend struct {
	items     map[string]storage.Item
	pending   map[string]bool
	submitted []storage.Operation
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{items: map[string]storage.Item{}, pending: map[string]bool{}}
}

func (b *fakeBackend) TryGet(key string) (storage.Item, bool, bool) {
	if b.pending[key] {
		return storage.Item{}, false, false
	}
	it, found := b.items[key]
	return it, found, true
}

func (b *fakeBackend) Submit(op storage.Operation) {
	b.submitted = append(b.submitted, op)
}

func TestGetInlineMiss(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	rbuf := &fakeRbuf{data: []byte("get foo\r\n")}
	sbuf := &fakeSbuf{}

	v := h.ParseRequest(rbuf, sbuf)
	if v != handler.Parallelizable {
		t.Fatalf("verdict = %v, want parallelizable", v)
	}
	if sbuf.buf.String() != "END\r\n" {
		t.Fatalf("response = %q, want END\\r\\n", sbuf.buf.String())
	}
}

func TestGetInlineHit(t *testing.T) {
	backend := newFakeBackend()
	backend.items["foo"] = storage.Item{Value: []byte("bar"), Flags: 5}
	h := NewHandler(1, backend)
	rbuf := &fakeRbuf{data: []byte("get foo\r\n")}
	sbuf := &fakeSbuf{}

	v := h.ParseRequest(rbuf, sbuf)
	if v != handler.Parallelizable {
		t.Fatalf("verdict = %v, want parallelizable", v)
	}
	want := "VALUE foo 5 3\r\nbar\r\nEND\r\n"
	if sbuf.buf.String() != want {
		t.Fatalf("response = %q, want %q", sbuf.buf.String(), want)
	}
}

func TestGetWaitsBehindPendingMutation(t *testing.T) {
	backend := newFakeBackend()
	backend.pending["foo"] = true
	h := NewHandler(1, backend)
	rbuf := &fakeRbuf{data: []byte("get foo\r\n")}
	sbuf := &fakeSbuf{}

	v := h.ParseRequest(rbuf, sbuf)
	if v != handler.Complex {
		t.Fatalf("verdict = %v, want complex", v)
	}
	if len(backend.submitted) != 1 || backend.submitted[0].Kind != storage.OpGet {
		t.Fatalf("submitted = %+v, want one OpGet", backend.submitted)
	}

	h.CompleteAsync(storage.Result{Op: backend.submitted[0], Found: true, Item: storage.Item{Value: []byte("baz")}})
	want := "VALUE foo 0 3\r\nbaz\r\nEND\r\n"
	if sbuf.buf.String() != want {
		t.Fatalf("response = %q, want %q", sbuf.buf.String(), want)
	}
}

func TestSetCompletesAsynchronously(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	rbuf := &fakeRbuf{data: []byte("set foo 0 0 3\r\nbar\r\n")}
	sbuf := &fakeSbuf{}

	v := h.ParseRequest(rbuf, sbuf)
	if v != handler.Complex {
		t.Fatalf("verdict = %v, want complex", v)
	}
	if len(rbuf.data) != 0 {
		t.Fatalf("leftover unparsed bytes: %q", rbuf.data)
	}
	if len(backend.submitted) != 1 {
		t.Fatalf("submitted %d ops, want 1", len(backend.submitted))
	}
	op := backend.submitted[0]
	if op.Kind != storage.OpSet || op.Key != "foo" || string(op.Value) != "bar" {
		t.Fatalf("op = %+v, want set foo=bar", op)
	}

	h.CompleteAsync(storage.Result{Op: op, Stored: true})
	if sbuf.buf.String() != "STORED\r\n" {
		t.Fatalf("response = %q, want STORED", sbuf.buf.String())
	}
}

func TestAddNotStoredWhenKeyExists(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	rbuf := &fakeRbuf{data: []byte("add foo 0 0 3\r\nbar\r\n")}
	sbuf := &fakeSbuf{}

	h.ParseRequest(rbuf, sbuf)
	op := backend.submitted[0]
	h.CompleteAsync(storage.Result{Op: op, Stored: false})
	if sbuf.buf.String() != "NOT_STORED\r\n" {
		t.Fatalf("response = %q, want NOT_STORED", sbuf.buf.String())
	}
}

func TestSetFragmentedAcrossReads(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	sbuf := &fakeSbuf{}

	rbuf := &fakeRbuf{data: []byte("set foo 0 0 3\r\n")}
	v := h.ParseRequest(rbuf, sbuf)
	if v != handler.PartialPacket {
		t.Fatalf("verdict = %v, want partial_packet before the payload arrives", v)
	}

	rbuf.data = append(rbuf.data, "ba"...)
	v = h.ParseRequest(rbuf, sbuf)
	if v != handler.PartialPacket {
		t.Fatalf("verdict = %v, want partial_packet mid-payload", v)
	}

	rbuf.data = append(rbuf.data, "r\r\n"...)
	v = h.ParseRequest(rbuf, sbuf)
	if v != handler.Complex {
		t.Fatalf("verdict = %v, want complex once the payload is whole", v)
	}
	if len(backend.submitted) != 1 || string(backend.submitted[0].Value) != "bar" {
		t.Fatalf("submitted = %+v, want value bar", backend.submitted)
	}
}

func TestCommandLineFragmentedAcrossReads(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	sbuf := &fakeSbuf{}
	rbuf := &fakeRbuf{}

	chunks := []string{"ge", "t k", "\r\n"}
	var v handler.Verdict
	for _, c := range chunks {
		rbuf.data = append(rbuf.data, c...)
		v = h.ParseRequest(rbuf, sbuf)
	}
	if v != handler.Parallelizable {
		t.Fatalf("verdict = %v, want parallelizable once the line completes", v)
	}
	if sbuf.buf.String() != "END\r\n" {
		t.Fatalf("response = %q, want END", sbuf.buf.String())
	}
}

func TestDeleteFoundAndNotFound(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	sbuf := &fakeSbuf{}

	h.ParseRequest(&fakeRbuf{data: []byte("delete foo\r\n")}, sbuf)
	h.CompleteAsync(storage.Result{Op: backend.submitted[0], Found: false})
	if sbuf.buf.String() != "NOT_FOUND\r\n" {
		t.Fatalf("response = %q, want NOT_FOUND", sbuf.buf.String())
	}

	sbuf.buf.Reset()
	h.ParseRequest(&fakeRbuf{data: []byte("delete foo\r\n")}, sbuf)
	h.CompleteAsync(storage.Result{Op: backend.submitted[1], Found: true})
	if sbuf.buf.String() != "DELETED\r\n" {
		t.Fatalf("response = %q, want DELETED", sbuf.buf.String())
	}
}

func TestDeleteNoReplySkipsComplex(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	sbuf := &fakeSbuf{}

	v := h.ParseRequest(&fakeRbuf{data: []byte("delete foo noreply\r\n")}, sbuf)
	if v != handler.Parallelizable {
		t.Fatalf("verdict = %v, want parallelizable for noreply", v)
	}
	if !backend.submitted[0].NoReply {
		t.Fatal("expected NoReply flag set on the submitted op")
	}
}

func TestQuitCommand(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	sbuf := &fakeSbuf{}
	v := h.ParseRequest(&fakeRbuf{data: []byte("quit\r\n")}, sbuf)
	if v != handler.Quit {
		t.Fatalf("verdict = %v, want quit", v)
	}
}

func TestUnknownCommandIsMalformed(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	sbuf := &fakeSbuf{}
	v := h.ParseRequest(&fakeRbuf{data: []byte("frobnicate\r\n")}, sbuf)
	if v != handler.Malformed {
		t.Fatalf("verdict = %v, want malformed", v)
	}
	if sbuf.buf.String() != "ERROR\r\n" {
		t.Fatalf("response = %q, want ERROR", sbuf.buf.String())
	}
}

func TestBadDataChunkTrailerIsMalformed(t *testing.T) {
	backend := newFakeBackend()
	h := NewHandler(1, backend)
	sbuf := &fakeSbuf{}
	v := h.ParseRequest(&fakeRbuf{data: []byte("set foo 0 0 3\r\nbarXX")}, sbuf)
	if v != handler.Malformed {
		t.Fatalf("verdict = %v, want malformed for a missing CRLF trailer", v)
	}
}
