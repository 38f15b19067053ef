package daemonctl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDaemons indicates the registry holds no daemons.
var ErrNoDaemons = errors.New("no running daemons")

var errEmptyExecutable = errors.New("daemon executable is empty")

// StartError reports a daemon that could not be spawned or never became
// reachable.
type StartError struct {
	UID        string
	WorkingDir string
	Command    []string
	Err        error
}

func (e *StartError) Error() string {
	msg := fmt.Sprintf("Error starting daemon: uid = %s, workingDir = %s, daemonArgs: %s",
		e.UID, e.WorkingDir, strings.Join(e.Command, " "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StartError) Unwrap() error { return e.Err }
