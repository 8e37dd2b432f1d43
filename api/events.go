// File: api/events.go
// Package api defines lifecycle event types consumed by control/metrics hooks.
// Author: momentics <momentics@gmail.com>

package api

// OpenEvent is emitted when a new connection is accepted.
type OpenEvent struct {
	Conn any // underlying connection, e.g. *connfsm.Connection
}

// CloseEvent is emitted when a connection is torn down.
type CloseEvent struct {
	Conn any
	Err  error
}
