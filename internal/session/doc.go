// Package session implements the client side of a build: the controller that
// sends one request and folds the daemon's replies into a status table and log
// buffer, the throttled renderer that keeps a live view of the table at the
// bottom of the terminal, and the finalizer that reports the outcome.
//
// Everything runs on the caller's goroutine. The only blocking point is
// Conn.Receive.
package session
