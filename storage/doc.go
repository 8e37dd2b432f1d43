// File: storage/doc.go
// Author: momentics <momentics@gmail.com>
//
// Package storage is a reference back-end for the connection FSM's
// Complex/Parallelizable split: an in-memory key/value map sharded
// across independent mutexes standing in for a B-tree, with mutating
// commands queued onto internal/concurrency workers instead of
// executing inline on the reactor thread. Nothing in connfsm or
// handler depends on this package directly — it exists to give the
// memcache handler something concrete to drive, the way the original
// system's pluggable back end let the FSM stay storage-agnostic.
package storage
