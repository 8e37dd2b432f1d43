// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the core poll-mode event reactor
// abstraction (epoll on Linux, IOCP on Windows) that drives
// connfsm.Connection.Step with readiness-triggered connfsm.Event
// values: EventRead maps to a socket_connected/recv_incomplete
// readable event, EventWrite to a send_incomplete writable event.
package reactor
