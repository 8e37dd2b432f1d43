// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the low-level TCP acceptor and the api.Socket
// adapter connfsm.Connection drives: StartTCPListener runs the accept
// loop, Socket wraps one accepted net.Conn with non-blocking Read/Write
// and raw descriptor access for Reactor registration.
package tcp
