package main

import (
	"context"
	"errors"
	"fmt"

	"mvnd/internal/daemonctl"
	"mvnd/internal/logging"
	"mvnd/internal/registry"
)

func (c *client) stop(ctx context.Context) error {
	store, err := registry.Open(c.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var failures []string
	count, err := daemonctl.StopAll(ctx, store, daemonctl.NewSignalKiller(), func(uid string, err error) {
		logging.WarnWithContext(c.logger, "daemon stop failed", "daemon_stop",
			logging.String(logging.FieldDaemonUID, uid),
			logging.Error(err))
		failures = append(failures, fmt.Sprintf("Daemon %s: %v", uid, err))
	})
	if errors.Is(err, daemonctl.ErrNoDaemons) {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.term, "Stopping %d running daemons\n", count)
	for _, line := range failures {
		fmt.Fprintln(c.term, line)
	}
	c.logger.Info("daemons stopped", logging.Int("count", count), logging.Int("failures", len(failures)))
	return c.term.Flush()
}
