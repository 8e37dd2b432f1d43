// File: memcache/doc.go
// Author: momentics <momentics@gmail.com>
//
// Package memcache is a reference handler.Handler implementing a
// subset of the classic ASCII memcached protocol (get/gets, set, add,
// delete, quit), grounded in the client request/response shapes of
// jsp-lqk-metapipe-memcached. Parsing resumes across separate
// ParseRequest calls via an explicit parseState the way nbhttp's
// request parser resumes across socket reads, so a request split
// across arbitrary read boundaries never loses progress.
package memcache
