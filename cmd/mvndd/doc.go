// Package main hosts the mvndd build daemon entrypoint.
//
// mvndd is normally spawned by mvnd with a fresh --uid and runs until it has
// been idle for daemon.idle_timeout_seconds or receives SIGTERM (mvnd --stop).
// The config subcommands scaffold and check the shared configuration file.
package main
