package connfsm

// EventKind identifies what triggered a Step call.
type EventKind int

const (
	// EventSocket: the reactor observed the socket ready for the
	// given Direction (readable, writable, or both).
	EventSocket EventKind = iota

	// EventRequestComplete: a back-end worker finished the Complex
	// operation this connection had outstanding.
	EventRequestComplete

	// EventShutdown: the server is closing every connection; Step
	// tears the connection down at once without flushing or parsing
	// anything still buffered.
	EventShutdown
)

// Direction qualifies an EventSocket event.
type Direction int

const (
	DirRead Direction = iota
	DirWrite
	DirReadWrite
)

// Event is the single input to Connection.Step.
type Event struct {
	Kind      EventKind
	Direction Direction // meaningful only when Kind == EventSocket
}
