// Package deps checks that the executables mvnd launches can be found.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"mvnd/internal/config"
)

// Requirement names an executable a component launches.
type Requirement struct {
	Name     string
	Command  string
	Optional bool
}

// Status reports whether a requirement resolved to an executable.
type Status struct {
	Requirement
	Path      string
	Available bool
	Detail    string
}

// Requirements lists the executables a configuration depends on: the build
// command the daemon runs and the daemon binary the client spawns.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "Build command", Command: cfg.Daemon.BuildCommand},
		{Name: "Daemon executable", Command: cfg.DaemonExecutable(), Optional: true},
	}
}

// Check resolves every requirement with exec.LookPath.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		switch path, err := exec.LookPath(req.Command); {
		case req.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		default:
			status.Path = path
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the statuses of required executables that were not found.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
