// Package buildargs splits the mvnd command line into the options the client
// consumes itself and the arguments forwarded to the daemon.
package buildargs
