// Package registry records the build daemons running on this machine.
//
// Daemons add themselves when they start listening, flip between idle and
// busy around each build, and remove themselves on shutdown. Clients read the
// registry to find a reusable daemon and to implement --status and --stop.
// The store is a small SQLite database so concurrent clients and daemons can
// share it safely.
package registry
