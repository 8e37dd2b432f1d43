// File: storage/store.go
// Author: momentics <momentics@gmail.com>
//
// Store is an in-memory hash-sharded map guarded by per-shard mutexes,
// standing in for the B-tree back end the original system pairs with
// its connection FSM. Reads that hit a key with no mutation in flight
// are satisfied inline by the caller; every mutation (and any read
// that must wait behind one) is queued and executed off the calling
// goroutine, modeled after Lord-Y-rafty's kvCommand vocabulary.
package storage

import (
	"hash/fnv"
	"sync"

	"github.com/edwingeng/deque/v2"

	"github.com/momentics/fsmcached/api"
	"github.com/momentics/fsmcached/internal/concurrency"
)

const shardCount = 32

// OpKind names a storage mutation or lookup.
type OpKind int

const (
	OpGet OpKind = iota
	OpSet
	OpAdd
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	default:
		return "invalid"
	}
}

// Item is one stored value plus the flags/expiry a memcached-style
// protocol surfaces back to clients.
type Item struct {
	Value   []byte
	Flags   uint32
	Exptime int64
}

// Operation is one queued unit of work: a key plus the mutation (or
// lookup) to perform against it.
type Operation struct {
	Kind    OpKind
	ConnID  uint64
	Key     string
	Value   []byte
	Flags   uint32
	Exptime int64

	// NoReply marks an operation whose caller already returned
	// handler.Parallelizable and is not waiting on a completion; the
	// completion routing layer must not drive the connection's FSM
	// for it, only let the mutation land.
	NoReply bool
}

// Result is what an Operation produced, delivered to the Store's
// completion callback once it has run.
type Result struct {
	Op     Operation
	Item   Item
	Found  bool
	Stored bool
}

type shard struct {
	mu      sync.RWMutex
	items   map[string]Item
	pending map[string]int
}

func newShard() *shard {
	return &shard{items: make(map[string]Item), pending: make(map[string]int)}
}

// Store is a sharded key/value table. Construct with New; the
// supplied onComplete callback fires once for every queued Operation,
// normally from a worker goroutine; when the executor rejects the
// task, Submit runs it inline and onComplete fires synchronously on
// the goroutine that called Submit.
type Store struct {
	shards     []*shard
	exec       api.Executor
	queues     []*deque.Deque[Operation]
	queueMus   []sync.Mutex
	onComplete func(Result)
}

// New builds a Store backed by workers worker goroutines (<=0 picks a
// runtime default), pinned to numaNode when numaNode >= 0.
func New(workers, numaNode int, onComplete func(Result)) *Store {
	s := &Store{
		shards:     make([]*shard, shardCount),
		exec:       concurrency.NewExecutor(workers, numaNode),
		queues:     make([]*deque.Deque[Operation], shardCount),
		queueMus:   make([]sync.Mutex, shardCount),
		onComplete: onComplete,
	}
	for i := 0; i < shardCount; i++ {
		s.shards[i] = newShard()
		s.queues[i] = deque.NewDeque[Operation]()
	}
	return s
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}

// TryGet attempts an inline read. ok is false when key has a
// mutation queued ahead of it; the caller must fall back to
// Submit(OpGet, ...) so the read observes that mutation's result in
// order, per the original's single-writer-per-key ordering.
func (s *Store) TryGet(key string) (item Item, found bool, ok bool) {
	sh := s.shards[shardIndex(key)]
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if sh.pending[key] > 0 {
		return Item{}, false, false
	}
	item, found = sh.items[key]
	return item, found, true
}

// Submit queues op for asynchronous execution and returns
// immediately. If the executor's queues are saturated, Submit falls
// back to running op inline on the calling goroutine rather than
// dropping it — a queued request_complete must always eventually
// arrive, per the FSM's back-end contract.
func (s *Store) Submit(op Operation) {
	idx := shardIndex(op.Key)
	sh := s.shards[idx]
	if op.Kind != OpGet {
		sh.mu.Lock()
		sh.pending[op.Key]++
		sh.mu.Unlock()
	}

	s.queueMus[idx].Lock()
	s.queues[idx].PushBack(op)
	s.queueMus[idx].Unlock()

	if err := s.exec.Submit(func() { s.drainOne(idx) }); err != nil {
		s.drainOne(idx)
	}
}

// drainOne executes at most one queued operation for shard idx.
// pending stays set until onComplete has returned, not just until the
// mutation is applied: a connection's get is meant to observe the
// mutation's completion event, not just its raw write.
func (s *Store) drainOne(idx int) {
	s.queueMus[idx].Lock()
	if s.queues[idx].Len() == 0 {
		s.queueMus[idx].Unlock()
		return
	}
	op := s.queues[idx].PopFront()
	s.queueMus[idx].Unlock()

	sh := s.shards[idx]
	res := apply(sh, op)

	if s.onComplete != nil {
		s.onComplete(res)
	}

	if op.Kind != OpGet {
		sh.mu.Lock()
		sh.pending[op.Key]--
		if sh.pending[op.Key] <= 0 {
			delete(sh.pending, op.Key)
		}
		sh.mu.Unlock()
	}
}

func apply(sh *shard, op Operation) Result {
	switch op.Kind {
	case OpGet:
		sh.mu.RLock()
		it, found := sh.items[op.Key]
		sh.mu.RUnlock()
		return Result{Op: op, Item: it, Found: found}

	case OpSet:
		sh.mu.Lock()
		sh.items[op.Key] = Item{Value: op.Value, Flags: op.Flags, Exptime: op.Exptime}
		sh.mu.Unlock()
		return Result{Op: op, Stored: true}

	case OpAdd:
		sh.mu.Lock()
		_, exists := sh.items[op.Key]
		if !exists {
			sh.items[op.Key] = Item{Value: op.Value, Flags: op.Flags, Exptime: op.Exptime}
		}
		sh.mu.Unlock()
		return Result{Op: op, Stored: !exists}

	case OpDelete:
		sh.mu.Lock()
		_, existed := sh.items[op.Key]
		delete(sh.items, op.Key)
		sh.mu.Unlock()
		return Result{Op: op, Found: existed}

	default:
		return Result{Op: op}
	}
}

// Resize grows or shrinks the Store's worker pool at runtime, e.g. in
// response to a Control.SetConfig call.
func (s *Store) Resize(workers int) {
	s.exec.Resize(workers)
}

// Close shuts down the Store's worker pool. Queued operations that
// have not yet been picked up by a worker are discarded.
func (s *Store) Close() {
	_ = s.exec.Close()
}
