// Package daemon implements the mvndd build daemon: a single-instance
// process that registers itself in the daemon registry, accepts build
// sessions over its socket, and streams build events and log lines back to
// the client.
//
// Builds are serialized; a client connecting while a build runs waits for it
// to finish. The registry entry tracks idle/busy transitions so clients only
// pick idle daemons. Build execution itself lives behind the Builder
// interface; ExecBuilder runs an external Maven command.
package daemon
