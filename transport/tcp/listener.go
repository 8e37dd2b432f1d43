// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// StartTCPListener runs a plain TCP accept loop: no protocol handshake,
// since fsmcached speaks the wire protocol itself over the raw stream
// from the first byte, unlike the WebSocket upgrade this package used
// to perform.

package tcp

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// ListenerConfig holds configuration for the TCP listener.
type ListenerConfig struct {
	Addr        string         // TCP address to bind (e.g., ":11311")
	WorkerCPUs  []int          // CPUs available for optional affinity pinning
	ConnHandler func(net.Conn) // invoked once per accepted connection
}

// StartTCPListener opens the TCP listening socket, applies affinity if
// requested, and starts the accept loop on its own goroutine, handing
// every accepted connection to cfg.ConnHandler. The returned
// net.Listener is already accepting; closing it stops the loop.
func StartTCPListener(cfg *ListenerConfig) (net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("tcp listen failed: %v", err)
	}

	if len(cfg.WorkerCPUs) > 0 {
		setCPUAffinity(cfg.WorkerCPUs[0])
	}

	go acceptLoop(ln, cfg.ConnHandler)
	return ln, nil
}

func acceptLoop(ln net.Listener, connHandler func(net.Conn)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			fmt.Fprintf(os.Stderr, "accept error: %v\n", err)
			continue
		}
		go connHandler(conn)
	}
}
