package memcache

// parseState names where a Handler resumes when a request straddles
// more than one read event, mirroring nbhttp's request-line/body
// state machine.
type parseState int8

const (
	stateCommandLine parseState = iota // scanning for the command line's terminating LF
	stateBodyData                      // accumulating a set/add payload of pending.dataLen bytes
	stateBodyTrailer                   // expecting the CRLF that follows the payload
)
