// Package message defines the build protocol spoken between mvnd and its
// daemons, along with the CBOR stream codec that carries it over a socket.
package message
