//go:build !linux && !windows

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import "errors"

var errUnsupportedPlatform = errors.New("reactor: this platform is not supported")

type stubReactor struct{}

func (stubReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	return errUnsupportedPlatform
}
func (stubReactor) Modify(fd uintptr, events FDEventType) error { return errUnsupportedPlatform }
func (stubReactor) Unregister(fd uintptr) error                 { return errUnsupportedPlatform }
func (stubReactor) Poll(timeoutMs int) error                    { return errUnsupportedPlatform }
func (stubReactor) Close() error                                { return nil }

// NewReactor returns an error for unsupported platforms.
func NewReactor() (Reactor, error) {
	return nil, errUnsupportedPlatform
}

var _ Reactor = stubReactor{}
