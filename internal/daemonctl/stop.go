package daemonctl

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"

	"mvnd/internal/registry"
)

// StopRegistry is the subset of the registry used by StopAll.
type StopRegistry interface {
	List(ctx context.Context) ([]registry.DaemonInfo, error)
	Remove(ctx context.Context, uid string) error
}

// Killer terminates a daemon process.
type Killer interface {
	Kill(pid int) error
}

// SignalKiller delivers a signal to the daemon process.
type SignalKiller struct {
	Signal unix.Signal
}

// NewSignalKiller returns a Killer sending SIGTERM, which daemons handle by
// deregistering and exiting.
func NewSignalKiller() SignalKiller {
	return SignalKiller{Signal: unix.SIGTERM}
}

func (k SignalKiller) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	return unix.Kill(pid, k.Signal)
}

// StopAll terminates every registered daemon. Each failure is handed to
// report and the remaining daemons are still processed; every entry is
// removed from the registry whatever the outcome. The number of daemons
// found is returned, with ErrNoDaemons when there were none.
func StopAll(ctx context.Context, reg StopRegistry, killer Killer, report func(uid string, err error)) (int, error) {
	daemons, err := reg.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list daemons: %w", err)
	}
	if len(daemons) == 0 {
		return 0, ErrNoDaemons
	}
	if report == nil {
		report = func(string, error) {}
	}
	for _, info := range daemons {
		if err := killer.Kill(info.PID); err != nil {
			report(info.UID, err)
		}
		if err := reg.Remove(ctx, info.UID); err != nil {
			report(info.UID, fmt.Errorf("remove registry entry: %w", err))
		}
	}
	return len(daemons), nil
}
