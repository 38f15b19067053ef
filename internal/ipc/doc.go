// Package ipc carries build protocol messages over Unix domain sockets.
//
// Conn is the duplex stream both sides use; the client dispatches a single
// request and then receives until a terminal message or a closed stream.
// Server owns the daemon's listening socket and hands each accepted
// connection to a Handler.
package ipc
