// File: handler/handler.go
// Package handler defines the contract between the connection FSM and
// the request parser/executor it drives.
// Author: momentics <momentics@gmail.com>
//
// A plain Handle(data any) error is too coarse for a stateful,
// resumable wire protocol: the connection FSM needs a verdict that
// tells it whether to keep draining the receive buffer, suspend for
// more bytes, suspend for a back-end completion, or tear the
// connection down. The verdict vocabulary below mirrors a classic
// req_handler_t result enum (op_malformed, op_partial_packet,
// op_req_quit, op_req_shutdown, op_req_complex, op_req_parallelizable,
// op_req_send_now).
package handler

// Verdict is the outcome of one ParseRequest attempt.
type Verdict int

const (
	// Malformed: the handler rejected the bytes it consumed and has
	// already staged an error response on the appender. The FSM keeps
	// draining — a later request on the same connection may be valid.
	Malformed Verdict = iota

	// PartialPacket: not enough bytes were available to parse a whole
	// request. The handler must not have called Consume for any
	// prefix it did not fully commit to.
	PartialPacket

	// Quit: the client asked to end the connection (e.g. "quit").
	Quit

	// Shutdown: the client or protocol asked to stop the whole server.
	Shutdown

	// Complex: the handler started asynchronous back-end work. Exactly
	// one RequestComplete event must later be delivered for this
	// connection; no further bytes are parsed from rbuf until then.
	Complex

	// Parallelizable: the handler satisfied the request inline, or
	// dispatched work that will not signal completion via an event.
	// The FSM is free to keep draining rbuf immediately.
	Parallelizable

	// SendNow: a complete response has been staged on the appender;
	// the FSM should attempt a flush before continuing to drain.
	SendNow
)

func (v Verdict) String() string {
	switch v {
	case Malformed:
		return "malformed"
	case PartialPacket:
		return "partial_packet"
	case Quit:
		return "quit"
	case Shutdown:
		return "shutdown"
	case Complex:
		return "complex"
	case Parallelizable:
		return "parallelizable"
	case SendNow:
		return "send_now"
	default:
		return "invalid"
	}
}

// RbufView is the read side of the contract: a view over the
// unparsed prefix of the connection's receive buffer. Consume removes
// a committed prefix; the handler must call it for exactly the bytes
// it has interpreted, including zero on a PartialPacket verdict.
type RbufView interface {
	// Bytes returns the current unparsed prefix, valid only until the
	// next Consume or Fill call.
	Bytes() []byte

	// Consume removes the first n bytes of the unparsed prefix.
	Consume(n int)
}

// SbufAppender is the write side of the contract: the connection's
// outbound byte chain. Appends made here are not flushed by the
// handler — the FSM decides when to flush, per SendNow/Complex verdicts.
type SbufAppender interface {
	// Append copies p onto the end of the chain.
	Append(p []byte) error

	// Printf formats into the chain, bounded by a fixed staging limit;
	// exceeding it is fatal to the connection, matching the original's
	// MAX_MESSAGE_SIZE check on vsnprintf.
	Printf(format string, args ...any) error
}

// Handler is the wire-protocol parser/executor the connection FSM
// drives. One Handler instance is owned exclusively by one connection
// for its entire lifetime (spec: "the connection exclusively owns its
// ... handler").
type Handler interface {
	// ParseRequest attempts to parse and, where possible, execute one
	// request from rbuf, staging any response (or error response) on
	// sbuf before returning. It is called once per attempt to make
	// progress on rbuf; the FSM promises not to call it again until
	// the previous call's verdict has been fully acted upon (e.g. a
	// Complex call's completion has arrived).
	ParseRequest(rbuf RbufView, sbuf SbufAppender) Verdict
}
