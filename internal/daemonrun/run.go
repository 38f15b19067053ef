package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mvnd/internal/config"
	"mvnd/internal/daemon"
	"mvnd/internal/deps"
	"mvnd/internal/ipc"
	"mvnd/internal/logging"
	"mvnd/internal/registry"
)

const maxIdleCheckInterval = time.Second

// Options configures daemon process runtime behavior.
type Options struct {
	UID        string
	LogLevel   string
	Foreground bool
}

// Run starts the build daemon and blocks until it is signaled, its context is
// canceled, or it has been idle for the configured timeout. The daemon is
// deregistered on every exit path.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	uid := strings.TrimSpace(opts.UID)
	if uid == "" {
		return errors.New("daemon uid is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logPath := cfg.DaemonLogPath(uid)
	logger, closer, err := newLogger(cfg, opts, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()
	logger = logger.With(logging.String(logging.FieldDaemonUID, uid))

	logging.PruneLogs(logger, cfg.Paths.LogDir, "daemon-*.log", cfg.Logging.RetentionDays, logPath)

	for _, missing := range deps.Missing(deps.Check(deps.Requirements(cfg))) {
		logging.WarnWithContext(logger, "build command unavailable", "dependency_check",
			logging.String("command", missing.Command),
			logging.String(logging.FieldErrorHint, missing.Detail),
			logging.String(logging.FieldImpact, "builds will fail with "+daemon.ClassCommandNotFound))
	}

	store, err := registry.Open(cfg)
	if err != nil {
		logger.Error("open registry", logging.Error(err))
		return err
	}
	defer store.Close()

	socketPath := cfg.DaemonSocketPath(uid)
	builder := daemon.NewExecBuilder(cfg.Daemon.BuildCommand, logger)
	d, err := daemon.New(daemon.Options{
		UID:      uid,
		Address:  socketPath,
		LockPath: cfg.DaemonLockPath(uid),
		Spec:     Spec(cfg),
	}, store, builder, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	server, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer server.Close()
	server.Serve()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	defer d.Stop(context.WithoutCancel(ctx))

	logger.Info("daemon ready",
		logging.String(logging.FieldEventType, "daemon_ready"),
		logging.String("socket", socketPath),
		logging.String("build_command", cfg.Daemon.BuildCommand),
		logging.Strings("options", cfg.Daemon.Options),
		logging.Duration("idle_timeout", cfg.IdleTimeout()))

	idle := cfg.IdleTimeout()
	if err := d.WatchIdle(ctx, idle, min(idle/10, maxIdleCheckInterval)); err == nil {
		logger.Info("daemon exiting after idle timeout")
		return nil
	}
	logger.Info("daemon shutting down")
	return nil
}

// Spec returns the compatibility spec a daemon started with cfg serves.
// Clients compute the same value from their own configuration.
func Spec(cfg *config.Config) registry.CompatibilitySpec {
	return registry.CompatibilitySpec{
		Executable: cfg.Daemon.BuildCommand,
		Options:    cfg.Daemon.Options,
	}
}

func newLogger(cfg *config.Config, opts Options, logPath string) (*slog.Logger, io.Closer, error) {
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, closer, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{logPath},
	})
	if err != nil {
		return nil, nil, err
	}
	if opts.Foreground {
		logger = logging.TeeLogger(logger, logging.ConsoleHandler(os.Stderr, logging.ParseLevel(level)))
	}
	return logger, closer, nil
}
