package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"mvnd/internal/ipc"
	"mvnd/internal/logging"
	"mvnd/internal/registry"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	lockRetryDelay      = 50 * time.Millisecond
)

// Registry is the subset of the daemon registry the connector needs.
type Registry interface {
	List(ctx context.Context) ([]registry.DaemonInfo, error)
	Get(ctx context.Context, uid string) (*registry.DaemonInfo, error)
	Remove(ctx context.Context, uid string) error
	Claim(ctx context.Context, uid string) (bool, error)
}

// Connector resolves a connection to a compatible daemon, spawning one when
// none is available.
type Connector struct {
	registry     Registry
	launcher     Launcher
	lock         *flock.Flock
	startTimeout time.Duration
	pollInterval time.Duration
	dial         func(path string) (*ipc.Conn, error)
	logger       *slog.Logger
}

// NewConnector builds a connector. lockPath serializes lookups between
// clients so two clients never race to spawn.
func NewConnector(reg Registry, launcher Launcher, lockPath string, startTimeout time.Duration, logger *slog.Logger) *Connector {
	return &Connector{
		registry:     reg,
		launcher:     launcher,
		lock:         flock.New(lockPath),
		startTimeout: startTimeout,
		pollInterval: defaultPollInterval,
		dial:         ipc.Dial,
		logger:       logging.NewComponentLogger(logger, "connector"),
	}
}

// Connect returns a connection to an idle daemon matching spec. The daemon is
// claimed busy before the connect lock is released, so it is handed to one
// client only. Entries whose socket is gone are dropped from the registry along
// the way.
func (c *Connector) Connect(ctx context.Context, spec registry.CompatibilitySpec) (*ipc.Conn, error) {
	locked, err := c.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire connect lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire connect lock: %s is held by another client", c.lock.Path())
	}
	defer func() { _ = c.lock.Unlock() }()

	if conn, err := c.connectExisting(ctx, spec); err != nil || conn != nil {
		return conn, err
	}
	return c.spawn(ctx)
}

func (c *Connector) connectExisting(ctx context.Context, spec registry.CompatibilitySpec) (*ipc.Conn, error) {
	daemons, err := c.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list daemons: %w", err)
	}
	for _, info := range daemons {
		if info.State != registry.StateIdle || !info.Spec.Matches(spec) {
			continue
		}
		conn, err := c.dial(info.Address)
		if err == nil {
			claimed, err := c.registry.Claim(ctx, info.UID)
			if err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("claim daemon %s: %w", info.UID, err)
			}
			if !claimed {
				_ = conn.Close()
				continue
			}
			c.logger.Debug("connected to idle daemon",
				logging.String(logging.FieldDaemonUID, info.UID),
				logging.String("address", info.Address))
			return conn, nil
		}
		if !isDaemonUnavailable(err) {
			logging.WarnWithContext(c.logger, "daemon dial failed", "daemon_dial_failed",
				logging.String(logging.FieldDaemonUID, info.UID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "a new daemon will be started instead"))
			continue
		}
		c.logger.Info("removing stale daemon entry",
			logging.String(logging.FieldDaemonUID, info.UID),
			logging.String(logging.FieldEventType, "daemon_stale_removed"),
			logging.Error(err))
		if err := c.registry.Remove(ctx, info.UID); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (c *Connector) spawn(ctx context.Context) (*ipc.Conn, error) {
	spawned, err := c.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("daemon spawned",
		logging.String(logging.FieldDaemonUID, spawned.UID),
		logging.Int("pid", spawned.PID),
		logging.String("working_dir", spawned.WorkingDir),
		logging.Strings("command", spawned.Command))

	conn, err := c.waitForDaemon(ctx, spawned.UID)
	if err != nil {
		return nil, &StartError{UID: spawned.UID, WorkingDir: spawned.WorkingDir, Command: spawned.Command, Err: err}
	}
	return conn, nil
}

// waitForDaemon polls the registry until the daemon with uid has registered
// and accepts a connection.
func (c *Connector) waitForDaemon(ctx context.Context, uid string) (*ipc.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.startTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		info, err := c.registry.Get(ctx, uid)
		switch {
		case err != nil:
			lastErr = err
		case info != nil:
			conn, dialErr := c.dial(info.Address)
			if dialErr != nil {
				lastErr = dialErr
				break
			}
			claimed, claimErr := c.registry.Claim(ctx, uid)
			if claimed {
				return conn, nil
			}
			_ = conn.Close()
			if claimErr == nil {
				claimErr = fmt.Errorf("daemon %s is not idle", uid)
			}
			lastErr = claimErr
		}

		select {
		case <-ctx.Done():
			if lastErr == nil {
				lastErr = errors.New("daemon did not register")
			}
			return nil, fmt.Errorf("timeout after %s waiting for daemon: %w", c.startTimeout, lastErr)
		case <-ticker.C:
		}
	}
}

func isDaemonUnavailable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
