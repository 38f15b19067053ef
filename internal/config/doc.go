// Package config loads, normalizes, and validates mvnd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// MVND_BUILD_COMMAND and NO_COLOR. The same Config drives the client and the
// daemons it spawns, so registry, socket and log locations always agree.
package config
