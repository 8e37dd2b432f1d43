// File: adapters/handler_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
//
// HandlerFunc glue and extensible middleware with chain-of-type tracing.
// Handler is deliberately narrow: something that processes one opaque
// unit of work and can fail. It lets logging, panic recovery, and
// metrics concerns wrap a unit of work without entangling them with
// the connection FSM's own verdict handling in package server.

package adapters

import (
	"log"

	"github.com/momentics/fsmcached/api"
)

// Handler processes one opaque unit of work. Middleware below composes
// over this, not over connfsm.Connection directly, so adapters has no
// import-time dependency on connfsm.
type Handler interface {
	Handle(data any) error
}

// HandlerFunc converts a function into a Handler.
type HandlerFunc func(data any) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(data any) error {
	return f(data)
}

// MiddlewareHandler wraps a base Handler and applies middleware in chain.
type MiddlewareHandler struct {
	handler    Handler
	middleware []func(Handler) Handler
}

// NewMiddlewareHandler creates a new MiddlewareHandler for the given base handler.
func NewMiddlewareHandler(handler Handler) *MiddlewareHandler {
	return &MiddlewareHandler{
		handler:    handler,
		middleware: make([]func(Handler) Handler, 0),
	}
}

// Use appends a middleware to the chain.
func (m *MiddlewareHandler) Use(mw func(Handler) Handler) *MiddlewareHandler {
	m.middleware = append(m.middleware, mw)
	return m
}

// Handle applies all middleware then calls the base handler.
func (m *MiddlewareHandler) Handle(data any) error {
	handler := m.handler
	for i := len(m.middleware) - 1; i >= 0; i-- {
		handler = m.middleware[i](handler)
	}
	return handler.Handle(data)
}

// LoggingMiddleware logs entry, exit, and errors of handler invocation.
func LoggingMiddleware(next Handler) Handler {
	return HandlerFunc(func(data any) error {
		log.Printf("[Handler] Processing data: %T", data)
		err := next.Handle(data)
		if err != nil {
			log.Printf("[Handler] Error: %v", err)
		}
		return err
	})
}

// RecoveryMiddleware recovers from panics in handler.
func RecoveryMiddleware(next Handler) Handler {
	return HandlerFunc(func(data any) error {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Handler] Panic recovered: %v", r)
			}
		}()
		return next.Handle(data)
	})
}

// MetricsMiddleware increments the "handler.processed" counter in Control stats.
func MetricsMiddleware(control api.Control) func(Handler) Handler {
	return func(next Handler) Handler {
		return HandlerFunc(func(data any) error {
			stats := control.Stats()
			count, _ := stats["handler.processed"].(int64)
			control.SetConfig(map[string]any{
				"handler.processed": count + 1,
			})
			return next.Handle(data)
		})
	}
}
