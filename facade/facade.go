// File: facade/facade.go
// Unified facade layer for fsmcached.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FSMCached aggregates the pieces a caller would otherwise have to
// assemble by hand (server.Server, its reactor, storage back end, and
// control/affinity adapters) behind one Config and one Start/Stop
// pair.

package facade

import (
	"fmt"
	"net"
	"sync"

	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/server"
)

// Config holds parameters immutable for one FSMCached instance.
type Config struct {
	ListenAddr    string // TCP address to listen on
	NumWorkers    int    // storage back-end worker goroutines
	NUMANode      int    // preferred NUMA node, -1 for auto
	NUMANodeCount int    // NUMA nodes the buffer pools segment across
	ArenaSize     int    // per-connection receive buffer capacity
	LinkSize      int    // per-connection send chain link size
	WorkerCPUs    []int  // CPUs available for accept-path affinity
	EnableMetrics bool   // enable the "metrics.enabled" Control flag
}

// DefaultConfig returns sane defaults for a single-node deployment.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:    ":11311",
		NumWorkers:    4,
		NUMANode:      -1,
		NUMANodeCount: 1,
		EnableMetrics: true,
	}
}

// FSMCached is the facade type. It implements api.GracefulShutdown.
type FSMCached struct {
	server *server.Server
	cfg    *Config

	mu      sync.Mutex
	started bool
}

var _ api.GracefulShutdown = (*FSMCached)(nil)

// New constructs FSMCached from cfg, building the underlying server
// but not yet binding its listener.
func New(cfg *Config) (*FSMCached, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	srv, err := server.New(server.Config{
		Addr:           cfg.ListenAddr,
		NumaNode:       cfg.NUMANode,
		StorageWorkers: cfg.NumWorkers,
		NUMANodeCount:  cfg.NUMANodeCount,
		ArenaSize:      cfg.ArenaSize,
		LinkSize:       cfg.LinkSize,
		WorkerCPUs:     cfg.WorkerCPUs,
	})
	if err != nil {
		return nil, fmt.Errorf("facade: server init: %w", err)
	}

	f := &FSMCached{server: srv, cfg: cfg}
	if cfg.EnableMetrics {
		_ = f.GetControl().SetConfig(map[string]any{"metrics.enabled": true})
	}
	return f, nil
}

// Start binds the listener and begins serving. Calling Start twice is
// a no-op.
func (f *FSMCached) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return nil
	}
	if err := f.server.Listen(); err != nil {
		return fmt.Errorf("facade: listen: %w", err)
	}
	go f.server.Serve()
	f.started = true
	return nil
}

// Stop asks the server to shut down cooperatively and waits for it to
// finish. Calling Stop on a non-started facade is a no-op.
func (f *FSMCached) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return nil
	}
	err := f.server.Shutdown()
	f.started = false
	return err
}

// Shutdown implements api.GracefulShutdown by delegating to Stop.
func (f *FSMCached) Shutdown() error { return f.Stop() }

// GetControl returns the Control interface for dynamic config and metrics.
func (f *FSMCached) GetControl() api.Control { return f.server.GetControl() }

// GetDebug returns the read-only introspection surface, for callers
// that want probe output without the ability to also SetConfig.
func (f *FSMCached) GetDebug() api.Debug { return f.server.GetDebug() }

// Addr returns the listener's bound address. Valid only after Start.
func (f *FSMCached) Addr() net.Addr { return f.server.Addr() }
