// File: api/control.go
// Package api defines Control and Debug interfaces.
// Author: momentics <momentics@gmail.com>

package api

// Control manages dynamic config and runtime metrics.
type Control interface {
	GetConfig() map[string]any
	SetConfig(cfg map[string]any) error
	Stats() map[string]any
	OnReload(fn func())
	RegisterDebugProbe(name string, fn func() any)
}

// Debug exposes runtime introspection for production diagnostics.
type Debug interface {
	// DumpState emits a snapshot of system state for diagnostics.
	DumpState() map[string]any

	// RegisterProbe dynamically registers a new debug probe.
	RegisterProbe(name string, fn func() any)
}

// GracefulShutdown unifies orderly shutdown of long-lived components
// (server, facade) — distinct from the per-connection shutdown verdict
// the connection FSM returns, which only tears down one connection.
type GracefulShutdown interface {
	// Shutdown stops accepting new work and releases resources.
	// Returns an error if shutdown could not complete cleanly.
	Shutdown() error
}
