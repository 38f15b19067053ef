package registry

import (
	"slices"
	"time"
)

// State is the lifecycle state a daemon last reported.
type State string

const (
	StateIdle State = "idle"
	StateBusy State = "busy"
)

// CompatibilitySpec identifies daemons that may serve the same builds.
type CompatibilitySpec struct {
	Executable string
	Options    []string
}

// Matches reports whether two specs describe interchangeable daemons.
func (s CompatibilitySpec) Matches(other CompatibilitySpec) bool {
	return s.Executable == other.Executable && slices.Equal(s.Options, other.Options)
}

// DaemonInfo is one registry entry.
type DaemonInfo struct {
	UID      string
	PID      int
	Address  string
	Spec     CompatibilitySpec
	State    State
	LastIdle time.Time
	LastBusy time.Time
}

// LastActive returns the later of the idle and busy marks.
func (d DaemonInfo) LastActive() time.Time {
	if d.LastBusy.After(d.LastIdle) {
		return d.LastBusy
	}
	return d.LastIdle
}
