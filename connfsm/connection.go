package connfsm

import (
	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/core/buffer"
	"github.com/momentics/fsmcached/handler"
	"github.com/momentics/fsmcached/pool"
	"github.com/momentics/fsmcached/recvbuf"
	"github.com/momentics/fsmcached/sendbuf"
)

// Connection drives one client socket through the FSM: do_transition
// dispatches on the current state and the incoming event, then a drain
// loop repeatedly offers buffered bytes to the handler until it can
// make no further progress without more input, more output capacity,
// or a back-end completion.
//
// rbuf and sbuf are allocated lazily on first activity and released
// only when a read in StateSocketConnected would block with rbuf empty
// (mirroring a classic return_to_socket_connected step). A connection
// parked in StateRecvIncomplete after serving a request keeps both.
type Connection struct {
	sock    api.Socket
	handler handler.Handler

	rbuf *recvbuf.Buffer
	sbuf *sendbuf.Chain

	rbufPool *buffer.ArenaPool
	linkPool *pool.LinkPool
	numaNode int

	state  State
	corked bool
	closed bool
}

// NewConnection wraps an accepted socket and its dedicated handler
// instance. rbufPool and linkPool are typically shared across every
// connection pinned to the same reactor thread / NUMA node.
func NewConnection(sock api.Socket, h handler.Handler, rbufPool *buffer.ArenaPool, linkPool *pool.LinkPool, numaNode int) *Connection {
	return &Connection{
		sock:     sock,
		handler:  h,
		rbufPool: rbufPool,
		linkPool: linkPool,
		numaNode: numaNode,
		state:    StateSocketConnected,
	}
}

// State reports the connection's current FSM state.
func (c *Connection) State() State { return c.state }

// SetCorked suppresses outbound flushes until uncorked, letting a
// caller batch several staged responses (e.g. pipelined get hits)
// into one write.
func (c *Connection) SetCorked(corked bool) { c.corked = corked }

// Corked reports the current cork flag.
func (c *Connection) Corked() bool { return c.corked }

func (c *Connection) ensureRbuf() {
	if c.rbuf == nil {
		c.rbuf = recvbuf.New(c.rbufPool, c.numaNode)
	}
}

func (c *Connection) ensureSbuf() {
	if c.sbuf == nil {
		c.sbuf = sendbuf.NewChain(c.linkPool, c.numaNode)
	}
}

// releaseBuffers drops both buffers back to their pools. Called on
// the idle return to StateSocketConnected, never while either buffer
// still holds live data.
func (c *Connection) releaseBuffers() {
	if c.rbuf != nil {
		c.rbuf.Release()
		c.rbuf = nil
	}
	if c.sbuf != nil {
		c.sbuf.Close()
		c.sbuf = nil
	}
}

// teardown is the terminal transition: the socket is closed and both
// buffers are released. Step must not be called again afterward.
func (c *Connection) teardown() {
	if c.closed {
		return
	}
	c.closed = true
	c.releaseBuffers()
	if c.sock != nil {
		c.sock.Close()
	}
}

// Step is the single entry point the reactor calls with every event
// this connection receives. It dispatches on the current state, then
// falls through to the drain loop whenever the resulting state still
// has progress to offer the handler.
func (c *Connection) Step(ev Event) Verdict {
	if c.closed {
		panic("connfsm: Step called on a closed connection")
	}

	if ev.Kind == EventShutdown {
		c.teardown()
		return VerdictShutdown
	}

	var verdict Verdict
	var terminal bool

	switch c.state {
	case StateSocketConnected, StateOutstandingData:
		verdict, terminal = c.dispatchIdle(ev)
	case StateRecvIncomplete:
		verdict, terminal = c.dispatchRecvIncomplete(ev)
	case StateSendIncomplete:
		verdict, terminal = c.dispatchSendIncomplete(ev)
	case StateBtreeIncomplete:
		verdict, terminal = c.dispatchBtreeIncomplete(ev)
	default:
		panic("connfsm: invalid state in Step")
	}

	if terminal {
		return verdict
	}
	return c.drain()
}

// dispatchIdle handles case 1 of the dispatch table for a connection
// that is either freshly connected or already sitting on unparsed
// bytes (outstanding_data): a readable event means either "go read
// the first bytes" or "there's nothing new to read, go drain what's
// already buffered".
func (c *Connection) dispatchIdle(ev Event) (Verdict, bool) {
	if ev.Kind != EventSocket {
		panic("connfsm: non-socket event while awaiting input")
	}

	c.ensureRbuf()

	if c.rbuf.Used() > 0 {
		c.state = StateOutstandingData
		return VerdictOK, false
	}

	outcome, err := c.rbuf.Fill(c.sock)
	if err != nil {
		c.teardown()
		return VerdictQuit, true
	}
	switch outcome {
	case recvbuf.FillEOF:
		c.teardown()
		return VerdictQuit, true
	case recvbuf.FillWouldBlock:
		c.state = StateSocketConnected
		c.releaseBuffers()
		return VerdictOK, true
	default: // FillOK
		c.state = StateOutstandingData
		return VerdictOK, false
	}
}

// dispatchRecvIncomplete handles the case of a connection that was
// already waiting on more bytes for an in-progress request: unlike
// dispatchIdle it always attempts a fill, since the very reason it
// was parked here is that the handler could not make progress on the
// bytes already buffered.
func (c *Connection) dispatchRecvIncomplete(ev Event) (Verdict, bool) {
	if ev.Kind != EventSocket {
		panic("connfsm: non-socket event in socket_recv_incomplete")
	}

	c.ensureRbuf()

	outcome, err := c.rbuf.Fill(c.sock)
	if err != nil {
		c.teardown()
		return VerdictQuit, true
	}
	switch outcome {
	case recvbuf.FillEOF:
		c.teardown()
		return VerdictQuit, true
	case recvbuf.FillWouldBlock:
		return VerdictOK, true
	default: // FillOK
		c.state = StateOutstandingData
		return VerdictOK, false
	}
}

// dispatchSendIncomplete handles case 2: the connection is waiting
// for the socket to become writable so a previously short write can
// resume.
func (c *Connection) dispatchSendIncomplete(ev Event) (Verdict, bool) {
	if ev.Kind != EventSocket {
		panic("connfsm: non-socket event in socket_send_incomplete")
	}
	if err := c.sendToClient(); err != nil {
		c.teardown()
		return VerdictQuit, true
	}
	return VerdictOK, false
}

// dispatchBtreeIncomplete handles case 3: a Complex back-end op is
// outstanding. Socket events are ignored (no more input is parsed
// until the op completes); a RequestComplete event flushes whatever
// the handler staged while finishing the op.
func (c *Connection) dispatchBtreeIncomplete(ev Event) (Verdict, bool) {
	switch ev.Kind {
	case EventSocket:
		return VerdictOK, true
	case EventRequestComplete:
		if err := c.sendToClient(); err != nil {
			c.teardown()
			return VerdictQuit, true
		}
		return VerdictOK, false
	default:
		panic("connfsm: invalid event in btree_incomplete")
	}
}

// drain repeatedly offers buffered bytes to the handler. It runs
// whenever the resulting state after dispatch is StateOutstandingData
// or StateRecvIncomplete: the latter is included because the
// partial_packet branch below transitions into it and must remain
// able to continue the same loop once more bytes arrive, matching the
// loop's own exit condition ("neither recv_incomplete nor
// outstanding_data").
func (c *Connection) drain() Verdict {
	for c.state == StateOutstandingData || c.state == StateRecvIncomplete {
		if c.rbuf.Used() == 0 {
			outcome, err := c.rbuf.Fill(c.sock)
			if err != nil {
				c.teardown()
				return VerdictQuit
			}
			switch outcome {
			case recvbuf.FillEOF:
				c.teardown()
				return VerdictQuit
			case recvbuf.FillWouldBlock:
				c.state = StateRecvIncomplete
				return VerdictOK
			}
			c.state = StateOutstandingData
		}

		c.ensureSbuf()
		verdict := c.handler.ParseRequest(c.rbuf, c.sbuf)
		switch verdict {
		case handler.Malformed:
			if err := c.sendToClient(); err != nil {
				c.teardown()
				return VerdictQuit
			}
			continue

		case handler.PartialPacket:
			if c.rbuf.Full() {
				c.teardown()
				return VerdictQuit
			}
			c.state = StateRecvIncomplete
			outcome, err := c.rbuf.Fill(c.sock)
			if err != nil {
				c.teardown()
				return VerdictQuit
			}
			if outcome == recvbuf.FillEOF {
				c.teardown()
				return VerdictQuit
			}
			if outcome == recvbuf.FillWouldBlock {
				return VerdictOK
			}
			c.state = StateOutstandingData
			continue

		case handler.Quit:
			c.teardown()
			return VerdictQuit

		case handler.Shutdown:
			c.teardown()
			return VerdictShutdown

		case handler.Complex:
			c.state = StateBtreeIncomplete
			return VerdictOK

		case handler.Parallelizable:
			c.state = StateOutstandingData
			if err := c.sendToClient(); err != nil {
				c.teardown()
				return VerdictQuit
			}
			continue

		case handler.SendNow:
			if err := c.sendToClient(); err != nil {
				c.teardown()
				return VerdictQuit
			}
			continue

		default:
			panic("connfsm: handler returned an invalid verdict")
		}
	}
	return VerdictOK
}

// sendToClient mirrors a classic send_msg_to_client: a no-op while
// corked, otherwise one flush attempt. A full drain returns the
// connection to outstanding_data and compacts the chain; a short
// write parks it in send_incomplete to await the next writable event.
func (c *Connection) sendToClient() error {
	if c.corked {
		return nil
	}
	c.ensureSbuf()
	res, err := c.sbuf.Flush(c.sock)
	if err != nil {
		return err
	}
	if res.Drained {
		c.sbuf.Collect()
		c.state = StateOutstandingData
	} else {
		c.state = StateSendIncomplete
	}
	return nil
}
