package main

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"mvnd/internal/config"
	"mvnd/internal/daemonctl"
	"mvnd/internal/daemonrun"
	"mvnd/internal/logging"
	"mvnd/internal/message"
	"mvnd/internal/registry"
	"mvnd/internal/session"
)

func (c *client) build(ctx context.Context) error {
	store, err := registry.Open(c.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger := c.logger.With(logging.String(logging.FieldSessionID, ulid.Make().String()))

	launcher := daemonctl.NewProcessLauncher(c.cfg.DaemonExecutable(), c.configPath, c.workingDir)
	connector := daemonctl.NewConnector(store, launcher, c.cfg.ConnectLockPath(), c.cfg.StartTimeout(), logger)

	connectStart := time.Now()
	conn, err := connector.Connect(ctx, daemonrun.Spec(c.cfg))
	if err != nil {
		logging.ErrorWithContext(logger, "connect to daemon failed", "daemon_connect",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the daemon log in "+c.cfg.Paths.LogDir))
		return err
	}
	defer conn.Close()
	logger.Debug("connected to daemon", logging.Duration("elapsed", time.Since(connectStart)))

	req := message.BuildRequest{
		Args:       c.inv.Args,
		WorkingDir: c.workingDir,
		RootDir:    config.ProjectRoot(c.workingDir),
	}
	renderer := session.NewRenderer(c.term, session.WithInterval(c.cfg.RenderInterval()))

	buildStart := time.Now()
	res, err := session.NewController(renderer, logger).Run(conn, req)
	if err != nil {
		return err
	}
	if err := session.NewFinalizer(c.term, c.term.Emphasis()).Finish(res, c.inv.LogFile); err != nil {
		return fmt.Errorf("write build log: %w", err)
	}

	attrs := []logging.Attr{
		logging.Duration("elapsed", time.Since(buildStart)),
		logging.Int("log_lines", len(res.Log)),
	}
	if res.Failed() {
		attrs = append(attrs, logging.String("failure", session.FailureLine(*res.Failure)))
		logger.Info("build session failed", logging.Args(attrs...)...)
		return errBuildFailed
	}
	logger.Info("build session finished", logging.Args(attrs...)...)
	return nil
}
