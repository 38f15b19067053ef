// Package daemonctl finds or spawns build daemons for the client and
// implements the --status and --stop administration commands.
//
// All daemon lookups go through the shared registry; the Connector serializes
// lookup and spawning across concurrent clients with a file lock.
package daemonctl
