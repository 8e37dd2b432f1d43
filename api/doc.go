// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api declares the seams between the connection FSM core and its
// external collaborators: the socket layer, the event reactor, buffer
// pools, CPU affinity, and runtime control/metrics. Nothing in this
// package performs I/O; it only fixes the contracts other packages
// implement and the connfsm package depends on.
package api
