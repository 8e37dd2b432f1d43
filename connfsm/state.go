package connfsm

// State is one of the five per-connection FSM states, mirroring a
// classic conn_fsm state_t.
type State int

const (
	// StateSocketConnected: idle, no buffers allocated, waiting for
	// the first byte or a send request from outside.
	StateSocketConnected State = iota

	// StateRecvIncomplete: rbuf holds a prefix the handler could not
	// yet parse into a whole request; waiting for more bytes.
	StateRecvIncomplete

	// StateSendIncomplete: sbuf holds bytes a previous flush could not
	// fully write; waiting for the socket to become writable again.
	StateSendIncomplete

	// StateBtreeIncomplete: a Complex request is outstanding at the
	// back end; rbuf is frozen until its RequestComplete event arrives.
	StateBtreeIncomplete

	// StateOutstandingData: rbuf holds bytes not yet offered to the
	// handler, or the handler may still be able to make progress.
	StateOutstandingData
)

func (s State) String() string {
	switch s {
	case StateSocketConnected:
		return "socket_connected"
	case StateRecvIncomplete:
		return "socket_recv_incomplete"
	case StateSendIncomplete:
		return "socket_send_incomplete"
	case StateBtreeIncomplete:
		return "btree_incomplete"
	case StateOutstandingData:
		return "outstanding_data"
	default:
		return "invalid"
	}
}

// Verdict is Step's report to the caller (the reactor) of what
// happened to the connection.
type Verdict int

const (
	// VerdictOK: the connection is still alive; nothing further is
	// required of the caller for this event.
	VerdictOK Verdict = iota

	// VerdictQuit: the connection has been torn down at the client's
	// or protocol's request, or after a fatal I/O error. The caller
	// must deregister the socket.
	VerdictQuit

	// VerdictShutdown: as VerdictQuit, and additionally the server as
	// a whole has been asked to stop.
	VerdictShutdown
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictQuit:
		return "quit"
	case VerdictShutdown:
		return "shutdown"
	default:
		return "invalid"
	}
}
