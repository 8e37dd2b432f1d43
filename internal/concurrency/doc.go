// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// High-performance concurrency primitives with NUMA-aware, lock-free,
// and cross-platform support. Includes CPU/NUMA pinning, a worker-pool
// executor with per-worker queues and a shared fallback queue, and a
// mutex-guarded completion queue.
//
// All implementations are cross-platform compatible (Linux/Windows).
package concurrency
