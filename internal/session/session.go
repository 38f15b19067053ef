package session

import (
	"fmt"
	"log/slog"

	"mvnd/internal/logging"
	"mvnd/internal/message"
)

// Conn is the daemon side of a build session.
type Conn interface {
	Dispatch(msg message.Message) error
	Receive() (message.Message, error)
}

// Display shows live progress while a session runs.
type Display interface {
	Render(lines []string) error
	Clear() error
}

// Result is what a finished session hands to the Finalizer.
type Result struct {
	Log     []string
	Failure *message.BuildException
}

// Failed reports whether the session ended with a fatal error.
func (r Result) Failed() bool { return r.Failure != nil }

// Controller drives one build session: it sends the request, consumes the
// daemon's messages until a terminal one arrives, and keeps the display in
// step with the status table.
type Controller struct {
	display Display
	logger  *slog.Logger
}

// NewController returns a controller rendering to display. A nil display
// disables live progress.
func NewController(display Display, logger *slog.Logger) *Controller {
	if display == nil {
		display = nopDisplay{}
	}
	return &Controller{display: display, logger: logging.NewComponentLogger(logger, "session")}
}

// Run executes one session. An error is returned only when the request could
// not be sent; every failure after that is reported through Result.Failure.
// A stream that ends before a terminal message is recorded as a
// ConnectionClosedException failure. The display region is always cleared
// before Run returns.
func (c *Controller) Run(conn Conn, req message.BuildRequest) (Result, error) {
	if err := conn.Dispatch(req); err != nil {
		return Result{}, fmt.Errorf("dispatch build request: %w", err)
	}
	c.logger.Debug("build request dispatched",
		logging.Strings("args", req.Args),
		logging.String("working_dir", req.WorkingDir),
		logging.String("root_dir", req.RootDir))

	state := NewState()
	received := 0
	for !state.Done() {
		msg, err := conn.Receive()
		if err != nil {
			logging.WarnWithContext(c.logger, "daemon stream ended before the build finished", "session_disconnected",
				logging.Error(err),
				logging.Int("messages", received),
				logging.String(logging.FieldImpact, "build result is unknown"),
				logging.String(logging.FieldErrorHint, "check the daemon log for a crash"))
			state.fail(message.BuildException{ClassName: message.ClassConnectionClosed, Message: err.Error()})
			break
		}
		received++
		if u, ok := msg.(message.Unknown); ok {
			c.logger.Debug("ignoring unknown message", logging.String("kind", u.Kind))
		}
		if state.Apply(msg) {
			if err := c.display.Render(state.Snapshot()); err != nil {
				c.logger.Debug("render failed", logging.Error(err))
			}
		}
	}

	if err := c.display.Clear(); err != nil {
		c.logger.Debug("clear failed", logging.Error(err))
	}
	c.logger.Debug("session finished",
		logging.Int("messages", received),
		logging.Bool("failed", state.Failure() != nil))
	return Result{Log: state.Log(), Failure: state.Failure()}, nil
}

type nopDisplay struct{}

func (nopDisplay) Render([]string) error { return nil }
func (nopDisplay) Clear() error          { return nil }
