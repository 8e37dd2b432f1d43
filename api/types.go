// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared observability-level type declarations. These describe a
// connection's coarse phase for metrics/debug reporting and are a
// different abstraction than the connection FSM's own fine-grained
// protocol states (see connfsm.State).

package api

import "time"

// SessionPhase enumerates the coarse lifecycle phase of a connection,
// as reported to Control/Debug — not to be confused with connfsm.State.
type SessionPhase int

const (
	PhaseUnknown SessionPhase = iota
	PhaseConnecting
	PhaseActive
	PhaseClosing
	PhaseClosed
)

func (s SessionPhase) String() string {
	switch s {
	case PhaseConnecting:
		return "connecting"
	case PhaseActive:
		return "active"
	case PhaseClosing:
		return "closing"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Metrics provides a standard layout for service health/statistics reporting.
type Metrics struct {
	NumConnections int
	NumRequests    int64
	InboundBytes   uint64
	OutboundBytes  uint64
	StartedAt      time.Time
}

// ServiceInfo exposes descriptive build/runtime info for external tools.
type ServiceInfo struct {
	Name      string
	Version   string
	Build     string
	StartedAt time.Time
}
