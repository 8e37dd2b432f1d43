// File: server/server.go
// Author: momentics <momentics@gmail.com>
//
// Server owns one reactor thread, the storage back end it feeds
// completions from, and the registry of connections that thread
// drives. A classic event-driven memcached worker runs its accept and
// I/O dispatch as a single event loop thread per worker; Server keeps
// that same single-owner discipline: every connfsm.Connection.Step call
// made by this package happens on the goroutine running loop(), so no
// connection needs its own lock.

package server

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/fsmcached/adapters"
	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/connfsm"
	"github.com/momentics/fsmcached/core/buffer"
	"github.com/momentics/fsmcached/internal/concurrency"
	"github.com/momentics/fsmcached/memcache"
	"github.com/momentics/fsmcached/pool"
	"github.com/momentics/fsmcached/reactor"
	"github.com/momentics/fsmcached/storage"
	"github.com/momentics/fsmcached/transport/tcp"
)

// connEntry is the registry's bookkeeping for one live connection.
type connEntry struct {
	conn       *connfsm.Connection
	handler    *memcache.Handler
	fd         uintptr
	writeArmed bool
}

// Server accepts plain TCP connections, drives each one's connfsm.Connection
// from a single reactor thread, and routes storage.Store completions back
// into the right connection's Step.
type Server struct {
	cfg Config

	ln  net.Listener
	rtr reactor.Reactor

	store       *storage.Store
	completions *concurrency.CompletionQueue

	bufMgr   *pool.BufferPoolManager
	linkPool *pool.LinkPool
	rbufPool *buffer.ArenaPool

	control  api.Control
	debug    api.Debug
	affinity api.Affinity

	mu    sync.Mutex
	conns map[uint64]*connEntry

	nextConnID atomic.Uint64
	stopOnce   sync.Once
	stopped    atomic.Bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New builds a Server from cfg. The reactor, storage back end, and
// buffer pools are all constructed eagerly; nothing starts listening
// until Listen (or Run) is called.
func New(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	rtr, err := reactor.NewReactor()
	if err != nil {
		return nil, err
	}

	bufMgr := pool.NewBufferPoolManager(cfg.NUMANodeCount)
	linkPool := pool.NewLinkPool(bufMgr, cfg.LinkSize)
	rbufPool := buffer.NewArenaPool(cfg.ArenaSize)

	ctrl := adapters.NewControlAdapter()
	s := &Server{
		cfg:         cfg,
		rtr:         rtr,
		completions: concurrency.NewCompletionQueue(),
		bufMgr:      bufMgr,
		linkPool:    linkPool,
		rbufPool:    rbufPool,
		control:     ctrl,
		debug:       ctrl.Debug(),
		affinity:    adapters.NewAffinityAdapter(),
		conns:       make(map[uint64]*connEntry),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	s.store = storage.New(cfg.StorageWorkers, cfg.NumaNode, s.onStorageComplete)
	s.control.OnReload(s.reloadStorageWorkers)
	s.debug.RegisterProbe("storage.workers", func() any { return s.cfg.StorageWorkers })
	return s, nil
}

// GetDebug exposes the server's introspection probes, separate from
// GetControl since some callers (e.g. an operator /debug endpoint)
// want read-only diagnostics without the ability to also SetConfig.
func (s *Server) GetDebug() api.Debug { return s.debug }

// reloadStorageWorkers lets an operator grow or shrink the storage
// back end's worker pool at runtime via Control.SetConfig, without a
// restart. Any other key change just runs this as a no-op resize.
func (s *Server) reloadStorageWorkers() {
	cfg := s.control.GetConfig()
	n, ok := cfg["storage.workers"].(int)
	if !ok || n <= 0 {
		return
	}
	s.store.Resize(n)
}

// GetControl exposes the server's runtime config/metrics surface.
func (s *Server) GetControl() api.Control { return s.control }

// Run binds cfg.Addr and drives the reactor loop until Shutdown is
// called or the loop hits an unrecoverable accept/listen error. It
// blocks the calling goroutine.
func (s *Server) Run() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.Serve()
	return nil
}

// Listen binds cfg.Addr and starts accepting connections in the
// background, returning once the listener is up. Split out from Run
// so callers (tests, multi-listener setups) can learn the bound
// address via Addr before Serve starts blocking.
func (s *Server) Listen() error {
	ln, err := tcp.StartTCPListener(&tcp.ListenerConfig{
		Addr:        s.cfg.Addr,
		WorkerCPUs:  s.cfg.WorkerCPUs,
		ConnHandler: s.handleAccept,
	})
	if err != nil {
		return err
	}
	s.ln = ln

	if len(s.cfg.WorkerCPUs) > 0 {
		_ = s.affinity.Pin(s.cfg.WorkerCPUs[0], s.cfg.NumaNode)
	}
	return nil
}

// Serve runs the reactor loop until Shutdown is called. Listen must
// have already succeeded; it blocks the calling goroutine.
func (s *Server) Serve() {
	s.loop()
	close(s.doneCh)
}

// Addr returns the listener's bound address. Valid only after Listen
// (or Run) has returned successfully.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown asks the reactor loop to stop cooperatively: every live
// connection receives an EventShutdown Step before the listener,
// reactor, and storage back end are closed. Safe to call more than
// once or concurrently with Run.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.stopCh)
	})
	<-s.doneCh
	return nil
}

var _ api.GracefulShutdown = (*Server)(nil)

func (s *Server) handleAccept(conn net.Conn) {
	sock, err := tcp.NewSocket(conn)
	if err != nil {
		conn.Close()
		return
	}

	connID := s.nextConnID.Add(1)
	h := memcache.NewHandler(connID, s.store)
	fsm := connfsm.NewConnection(sock, h, s.rbufPool, s.linkPool, s.cfg.NumaNode)
	entry := &connEntry{conn: fsm, handler: h, fd: sock.RawFD()}

	err = s.rtr.Register(entry.fd, reactor.EventRead, func(fd uintptr, events reactor.FDEventType) {
		s.step(connID, connfsm.Event{Kind: connfsm.EventSocket, Direction: directionOf(events)})
	})
	if err != nil {
		sock.Close()
		return
	}

	s.mu.Lock()
	s.conns[connID] = entry
	s.mu.Unlock()
}

// directionOf maps a reactor readiness mask onto the Direction the FSM
// sees; a socket reported ready for both is read-first, matching the
// original's preference to drain input before attempting a retry send.
func directionOf(events reactor.FDEventType) connfsm.Direction {
	r := events&reactor.EventRead != 0
	w := events&reactor.EventWrite != 0
	switch {
	case r && w:
		return connfsm.DirReadWrite
	case w:
		return connfsm.DirWrite
	default:
		return connfsm.DirRead
	}
}

// step drives one connection's FSM and reconciles the reactor's write
// interest with the state the FSM landed in, so a connection parked in
// StateSendIncomplete gets EventWrite notifications until its retry
// drains, and nothing else pays the cost of spinning on an
// always-writable socket.
func (s *Server) step(connID uint64, ev connfsm.Event) {
	s.mu.Lock()
	entry, ok := s.conns[connID]
	s.mu.Unlock()
	if !ok {
		return
	}

	verdict := entry.conn.Step(ev)
	if verdict != connfsm.VerdictOK {
		s.removeConn(connID, entry)
		if verdict == connfsm.VerdictShutdown {
			go s.Shutdown()
		}
		return
	}

	wantWrite := entry.conn.State() == connfsm.StateSendIncomplete
	if wantWrite != entry.writeArmed {
		events := reactor.EventRead
		if wantWrite {
			events |= reactor.EventWrite
		}
		if err := s.rtr.Modify(entry.fd, events); err == nil {
			entry.writeArmed = wantWrite
		}
	}
}

func (s *Server) removeConn(connID uint64, entry *connEntry) {
	_ = s.rtr.Unregister(entry.fd)
	s.mu.Lock()
	delete(s.conns, connID)
	s.mu.Unlock()
}

// onStorageComplete is storage.Store's completion callback, invoked
// from an arbitrary worker goroutine. It never touches connection or
// reactor state directly, only the completion queue, matching
// internal/concurrency.CompletionQueue's single-consumer contract.
func (s *Server) onStorageComplete(res storage.Result) {
	s.completions.Push(concurrency.Completion{ConnID: res.Op.ConnID, Result: res})
}

// drainCompletions runs on the reactor thread: for every completion
// that a connection is actually waiting on (NoReply ops never parked a
// Step), it stages the response via Handler.CompleteAsync and then
// delivers the RequestComplete event.
func (s *Server) drainCompletions() {
	for _, c := range s.completions.Drain() {
		res, ok := c.Result.(storage.Result)
		if !ok || res.Op.NoReply {
			continue
		}
		s.mu.Lock()
		entry, ok := s.conns[c.ConnID]
		s.mu.Unlock()
		if !ok {
			continue
		}
		entry.handler.CompleteAsync(res)
		s.step(c.ConnID, connfsm.Event{Kind: connfsm.EventRequestComplete})
	}
}

// loop is the single reactor thread: poll for socket readiness, drain
// whatever back-end completions arrived meanwhile, repeat until asked
// to stop.
func (s *Server) loop() {
	for {
		select {
		case <-s.stopCh:
			s.teardown()
			return
		default:
		}
		if err := s.rtr.Poll(s.cfg.PollTimeoutMs); err != nil {
			if s.stopped.Load() {
				s.teardown()
				return
			}
		}
		s.drainCompletions()
	}
}

func (s *Server) teardown() {
	s.mu.Lock()
	entries := make([]*connEntry, 0, len(s.conns))
	for _, e := range s.conns {
		entries = append(entries, e)
	}
	s.conns = make(map[uint64]*connEntry)
	s.mu.Unlock()

	for _, e := range entries {
		e.conn.Step(connfsm.Event{Kind: connfsm.EventShutdown})
		_ = s.rtr.Unregister(e.fd)
	}

	_ = s.rtr.Close()
	s.store.Close()
	if s.ln != nil {
		_ = s.ln.Close()
	}
}
