// Package connfsm implements the per-connection protocol state
// machine: the FSM that drives one client socket through a
// memcached-style request/response lifecycle on an event-driven,
// non-blocking server.
//
// Modeled on a classic conn_fsm template (state_t, result_t,
// do_transition, fill_rbuf, send_msg_to_client,
// return_to_socket_connected), translated from an intrusive,
// template-parameterized C++ class into a Go struct parameterized by
// the handler.Handler interface, sendbuf.Chain and recvbuf.Buffer.
// Author: momentics <momentics@gmail.com>
package connfsm
