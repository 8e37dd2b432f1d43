// File: memcache/handler.go
// Author: momentics <momentics@gmail.com>

package memcache

import (
	"bytes"
	"strconv"

	"github.com/momentics/fsmcached/handler"
	"github.com/momentics/fsmcached/storage"
)

// maxLineLen bounds a command line the way the original's
// MAX_MESSAGE_SIZE check bounds a formatted response: past this many
// bytes without a terminating LF the connection is misbehaving.
const maxLineLen = 8192

// Backend is the storage surface a Handler drives. storage.Store
// satisfies it directly; tests substitute a smaller fake.
type Backend interface {
	TryGet(key string) (item storage.Item, found bool, ok bool)
	Submit(op storage.Operation)
}

type pendingCommand struct {
	kind    storage.OpKind
	key     string
	flags   uint32
	exptime int64
	dataLen int
	noreply bool
}

// Handler is a reference ASCII memcached-style handler.Handler. One
// instance is owned by exactly one connection, matching handler.Handler's
// single-owner contract; ConnID correlates that connection to the
// asynchronous completions Backend.Submit eventually produces.
type Handler struct {
	connID  uint64
	backend Backend

	state   parseState
	pending pendingCommand
	value   []byte

	waitingSbuf handler.SbufAppender
}

// NewHandler returns a Handler for connID, driving backend.
func NewHandler(connID uint64, backend Backend) *Handler {
	return &Handler{connID: connID, backend: backend}
}

// ConnID identifies which connection this Handler belongs to.
func (h *Handler) ConnID() uint64 { return h.connID }

// ParseRequest implements handler.Handler.
func (h *Handler) ParseRequest(rbuf handler.RbufView, sbuf handler.SbufAppender) handler.Verdict {
	switch h.state {
	case stateBodyData, stateBodyTrailer:
		return h.parseBody(rbuf, sbuf)
	default:
		return h.parseCommandLine(rbuf, sbuf)
	}
}

func (h *Handler) parseCommandLine(rbuf handler.RbufView, sbuf handler.SbufAppender) handler.Verdict {
	data := rbuf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		if len(data) > maxLineLen {
			rbuf.Consume(len(data))
			return h.clientError(sbuf, "line too long")
		}
		return handler.PartialPacket
	}

	line := bytes.TrimRight(data[:idx+1], "\r\n")
	rbuf.Consume(idx + 1)

	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return h.clientError(sbuf, "empty command")
	}

	switch string(fields[0]) {
	case "get", "gets":
		return h.handleGet(fields, sbuf)
	case "set":
		return h.beginData(storage.OpSet, fields, sbuf, rbuf)
	case "add":
		return h.beginData(storage.OpAdd, fields, sbuf, rbuf)
	case "delete":
		return h.handleDelete(fields, sbuf)
	case "quit":
		return handler.Quit
	default:
		return h.errorResp(sbuf)
	}
}

func (h *Handler) handleGet(fields [][]byte, sbuf handler.SbufAppender) handler.Verdict {
	if len(fields) < 2 {
		return h.clientError(sbuf, "bad command line format")
	}
	key := string(fields[1])

	if item, found, ok := h.backend.TryGet(key); ok {
		writeGetResponse(sbuf, key, item, found)
		return handler.Parallelizable
	}

	h.waitingSbuf = sbuf
	h.backend.Submit(storage.Operation{Kind: storage.OpGet, ConnID: h.connID, Key: key})
	return handler.Complex
}

func (h *Handler) handleDelete(fields [][]byte, sbuf handler.SbufAppender) handler.Verdict {
	if len(fields) < 2 {
		return h.clientError(sbuf, "bad command line format")
	}
	noreply := len(fields) >= 3 && string(fields[len(fields)-1]) == "noreply"
	op := storage.Operation{Kind: storage.OpDelete, ConnID: h.connID, Key: string(fields[1]), NoReply: noreply}

	if noreply {
		h.backend.Submit(op)
		return handler.Parallelizable
	}
	h.waitingSbuf = sbuf
	h.backend.Submit(op)
	return handler.Complex
}

func (h *Handler) beginData(kind storage.OpKind, fields [][]byte, sbuf handler.SbufAppender, rbuf handler.RbufView) handler.Verdict {
	if len(fields) < 5 {
		return h.clientError(sbuf, "bad command line format")
	}
	flags, errFlags := strconv.ParseUint(string(fields[2]), 10, 32)
	exptime, errExp := strconv.ParseInt(string(fields[3]), 10, 64)
	dataLen, errLen := strconv.Atoi(string(fields[4]))
	if errFlags != nil || errExp != nil || errLen != nil || dataLen < 0 {
		return h.clientError(sbuf, "bad command line format")
	}

	h.pending = pendingCommand{
		kind:    kind,
		key:     string(fields[1]),
		flags:   uint32(flags),
		exptime: exptime,
		dataLen: dataLen,
		noreply: len(fields) >= 6 && string(fields[5]) == "noreply",
	}
	h.state = stateBodyData
	return h.parseBody(rbuf, sbuf)
}

func (h *Handler) parseBody(rbuf handler.RbufView, sbuf handler.SbufAppender) handler.Verdict {
	if h.state == stateBodyData {
		data := rbuf.Bytes()
		if len(data) < h.pending.dataLen {
			return handler.PartialPacket
		}
		h.value = append([]byte(nil), data[:h.pending.dataLen]...)
		rbuf.Consume(h.pending.dataLen)
		h.state = stateBodyTrailer
	}

	data := rbuf.Bytes()
	if len(data) < 2 {
		return handler.PartialPacket
	}
	if data[0] != '\r' || data[1] != '\n' {
		h.resetBody()
		return h.clientError(sbuf, "bad data chunk")
	}
	rbuf.Consume(2)

	op := storage.Operation{
		Kind:    h.pending.kind,
		ConnID:  h.connID,
		Key:     h.pending.key,
		Value:   h.value,
		Flags:   h.pending.flags,
		Exptime: h.pending.exptime,
		NoReply: h.pending.noreply,
	}
	noreply := h.pending.noreply
	h.resetBody()

	if noreply {
		h.backend.Submit(op)
		return handler.Parallelizable
	}
	h.waitingSbuf = sbuf
	h.backend.Submit(op)
	return handler.Complex
}

func (h *Handler) resetBody() {
	h.state = stateCommandLine
	h.pending = pendingCommand{}
	h.value = nil
}

// CompleteAsync stages the response for res onto the SbufAppender that
// was stashed when the matching request returned handler.Complex. The
// server wiring calls this exactly once per non-NoReply Result, before
// driving the connection's Step with a RequestComplete event; NoReply
// operations never reach here because they never parked the connection.
func (h *Handler) CompleteAsync(res storage.Result) {
	sbuf := h.waitingSbuf
	h.waitingSbuf = nil
	if sbuf == nil {
		return
	}
	switch res.Op.Kind {
	case storage.OpGet:
		writeGetResponse(sbuf, res.Op.Key, res.Item, res.Found)
	case storage.OpSet:
		_ = sbuf.Append([]byte("STORED\r\n"))
	case storage.OpAdd:
		if res.Stored {
			_ = sbuf.Append([]byte("STORED\r\n"))
		} else {
			_ = sbuf.Append([]byte("NOT_STORED\r\n"))
		}
	case storage.OpDelete:
		if res.Found {
			_ = sbuf.Append([]byte("DELETED\r\n"))
		} else {
			_ = sbuf.Append([]byte("NOT_FOUND\r\n"))
		}
	}
}

func writeGetResponse(sbuf handler.SbufAppender, key string, item storage.Item, found bool) {
	if found {
		_ = sbuf.Printf("VALUE %s %d %d\r\n", key, item.Flags, len(item.Value))
		_ = sbuf.Append(item.Value)
		_ = sbuf.Append([]byte("\r\n"))
	}
	_ = sbuf.Append([]byte("END\r\n"))
}

func (h *Handler) errorResp(sbuf handler.SbufAppender) handler.Verdict {
	_ = sbuf.Append([]byte("ERROR\r\n"))
	return handler.Malformed
}

func (h *Handler) clientError(sbuf handler.SbufAppender, msg string) handler.Verdict {
	_ = sbuf.Printf("CLIENT_ERROR %s\r\n", msg)
	return handler.Malformed
}

var _ handler.Handler = (*Handler)(nil)
var _ Backend = (*storage.Store)(nil)
