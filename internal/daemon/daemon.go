package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"mvnd/internal/ipc"
	"mvnd/internal/logging"
	"mvnd/internal/message"
	"mvnd/internal/registry"
)

// Class names reported for failures the daemon itself detects.
const (
	ClassProtocol    = "ProtocolException"
	ClassInterrupted = "InterruptedException"
	ClassDaemon      = "DaemonException"
)

// Registry is the subset of the daemon registry the daemon writes to.
type Registry interface {
	Add(ctx context.Context, info registry.DaemonInfo) error
	MarkBusy(ctx context.Context, uid string) error
	MarkIdle(ctx context.Context, uid string) error
	Remove(ctx context.Context, uid string) error
}

// Options identifies a daemon instance.
type Options struct {
	UID      string
	Address  string
	LockPath string
	Spec     registry.CompatibilitySpec
}

// Daemon serves build sessions and enforces single-instance execution per uid.
type Daemon struct {
	opts     Options
	registry Registry
	builder  Builder
	logger   *slog.Logger
	lock     *flock.Flock
	now      func() time.Time

	buildMu    sync.Mutex
	running    atomic.Bool
	busy       atomic.Bool
	lastActive atomic.Int64
}

// New constructs a daemon. Start must be called before it serves sessions.
func New(opts Options, reg Registry, builder Builder, logger *slog.Logger) (*Daemon, error) {
	if opts.UID == "" || opts.Address == "" || opts.LockPath == "" {
		return nil, errors.New("daemon requires uid, address, and lock path")
	}
	if reg == nil || builder == nil {
		return nil, errors.New("daemon requires registry and builder")
	}
	d := &Daemon{
		opts:     opts,
		registry: reg,
		builder:  builder,
		logger:   logging.NewComponentLogger(logger, "daemon").With(logging.String(logging.FieldDaemonUID, opts.UID)),
		lock:     flock.New(opts.LockPath),
		now:      time.Now,
	}
	d.touch()
	return d, nil
}

// Start acquires the instance lock and registers the daemon as idle.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another daemon with uid %s is already running", d.opts.UID)
	}

	now := d.now()
	info := registry.DaemonInfo{
		UID:      d.opts.UID,
		PID:      os.Getpid(),
		Address:  d.opts.Address,
		Spec:     d.opts.Spec,
		State:    registry.StateIdle,
		LastIdle: now,
	}
	if err := d.registry.Add(ctx, info); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("register daemon: %w", err)
	}

	d.touch()
	d.running.Store(true)
	d.logger.Info("daemon registered",
		logging.String(logging.FieldEventType, "daemon_registered"),
		logging.String("address", d.opts.Address),
		logging.Int("pid", info.PID))
	return nil
}

// Stop deregisters the daemon and releases the instance lock.
func (d *Daemon) Stop(ctx context.Context) {
	if !d.running.Load() {
		return
	}
	if err := d.registry.Remove(ctx, d.opts.UID); err != nil {
		logging.WarnWithContext(d.logger, "failed to deregister daemon", "daemon_deregister_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "clients may try to reach this daemon until the entry is found stale"),
			logging.String(logging.FieldErrorHint, "run mvnd --stop to clear the registry"))
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Busy reports whether a build is running.
func (d *Daemon) Busy() bool { return d.busy.Load() }

// IdleFor returns how long the daemon has been without a build, or zero
// while a build runs.
func (d *Daemon) IdleFor() time.Duration {
	if d.busy.Load() {
		return 0
	}
	return d.now().Sub(time.Unix(0, d.lastActive.Load()))
}

func (d *Daemon) touch() { d.lastActive.Store(d.now().UnixNano()) }

// ServeConn runs one build session on conn.
func (d *Daemon) ServeConn(ctx context.Context, conn *ipc.Conn) {
	d.serve(ctx, conn)
}

// sessionConn is the daemon side of a session.
type sessionConn interface {
	Dispatch(msg message.Message) error
	Receive() (message.Message, error)
}

func (d *Daemon) serve(ctx context.Context, conn sessionConn) {
	msg, err := conn.Receive()
	if !d.buildMu.TryLock() {
		_ = conn.Dispatch(message.BuildException{
			ClassName: ClassDaemon,
			Message:   "daemon is busy with another build",
		})
		return
	}
	defer d.buildMu.Unlock()

	if err != nil {
		d.logger.Debug("client left before sending a request", logging.Error(err))
		// The client claimed this daemon when it connected.
		d.mark(context.WithoutCancel(ctx), d.logger, d.registry.MarkIdle)
		return
	}
	req, ok := msg.(message.BuildRequest)
	if !ok {
		_ = conn.Dispatch(message.BuildException{
			ClassName: ClassProtocol,
			Message:   fmt.Sprintf("expected a build request, got %T", msg),
		})
		d.mark(context.WithoutCancel(ctx), d.logger, d.registry.MarkIdle)
		return
	}

	d.busy.Store(true)
	defer func() {
		d.touch()
		d.busy.Store(false)
	}()

	logger := d.logger.With(logging.String(logging.FieldSessionID, ulid.Make().String()))
	d.mark(ctx, logger, d.registry.MarkBusy)
	defer d.mark(context.WithoutCancel(ctx), logger, d.registry.MarkIdle)

	started := d.now()
	logger.Info("build started",
		logging.String(logging.FieldEventType, "build_started"),
		logging.Strings("args", req.Args),
		logging.String("working_dir", req.WorkingDir),
		logging.String("root_dir", req.RootDir))

	if err := conn.Dispatch(message.BuildEvent{Type: message.BuildStarted}); err != nil {
		logger.Info("client disconnected", logging.Error(err))
		return
	}
	buildErr := d.builder.Build(ctx, req, conn.Dispatch)

	var final message.Message = message.BuildEvent{Type: message.BuildStopped}
	if buildErr != nil {
		exc := exceptionFor(ctx, buildErr)
		final = exc
		logger.Info("build failed",
			logging.String(logging.FieldEventType, "build_failed"),
			logging.String("class", exc.ClassName),
			logging.String("reason", exc.Message),
			logging.Duration("elapsed", d.now().Sub(started)))
	} else {
		logger.Info("build finished",
			logging.String(logging.FieldEventType, "build_finished"),
			logging.Duration("elapsed", d.now().Sub(started)))
	}
	if err := conn.Dispatch(final); err != nil {
		logger.Info("client disconnected before the result was sent", logging.Error(err))
	}
}

func (d *Daemon) mark(ctx context.Context, logger *slog.Logger, fn func(context.Context, string) error) {
	if err := fn(ctx, d.opts.UID); err != nil {
		logging.WarnWithContext(logger, "registry update failed", "daemon_mark_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "mvnd --status may show a stale state"))
	}
}

// exceptionFor maps a build error onto the exception reported to the client.
func exceptionFor(ctx context.Context, err error) message.BuildException {
	var exc message.BuildException
	switch {
	case errors.As(err, &exc):
		return exc
	case ctx.Err() != nil:
		return message.BuildException{ClassName: ClassInterrupted, Message: "build interrupted: daemon shutting down"}
	default:
		return message.BuildException{ClassName: ClassDaemon, Message: err.Error()}
	}
}

// WatchIdle returns once the daemon has been idle for timeout, checking every
// interval, or when ctx is canceled.
func (d *Daemon) WatchIdle(ctx context.Context, timeout, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if idle := d.IdleFor(); idle >= timeout {
				d.logger.Info("idle timeout reached",
					logging.String(logging.FieldEventType, "daemon_idle_timeout"),
					logging.Duration("idle", idle))
				return nil
			}
		}
	}
}
