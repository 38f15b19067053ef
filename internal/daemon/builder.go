package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"mvnd/internal/logging"
	"mvnd/internal/message"
)

// Class names produced by ExecBuilder.
const (
	ClassCommandNotFound = "CommandNotFoundException"
	ClassBuildFailure    = "BuildFailureException"
)

const maxLineBytes = 1 << 20

// Emitter forwards one message to the client.
type Emitter func(msg message.Message) error

// Builder executes one build request, emitting log lines and project events
// while it runs. A returned message.BuildException is reported to the client
// as is; any other error is wrapped by the daemon.
type Builder interface {
	Build(ctx context.Context, req message.BuildRequest, emit Emitter) error
}

// ExecBuilder runs an external build command, Maven by default, and turns
// its console output into protocol messages.
type ExecBuilder struct {
	command string
	logger  *slog.Logger
}

// NewExecBuilder returns a builder invoking command.
func NewExecBuilder(command string, logger *slog.Logger) *ExecBuilder {
	return &ExecBuilder{command: command, logger: logging.NewComponentLogger(logger, "builder")}
}

// Build runs the command in req.WorkingDir with MAVEN_PROJECTBASEDIR set to
// req.RootDir. Stdout and stderr lines are forwarded as BuildMessage in the
// order they are read.
func (b *ExecBuilder) Build(ctx context.Context, req message.BuildRequest, emit Emitter) error {
	if err := validateArgs(req.Args); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, b.command, req.Args...)
	cmd.Dir = req.WorkingDir
	// Maven wrappers fork the JVM; cancellation must reach the whole group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return unix.Kill(-cmd.Process.Pid, unix.SIGKILL) }
	cmd.Env = os.Environ()
	if req.RootDir != "" {
		cmd.Env = append(cmd.Env, "MAVEN_PROJECTBASEDIR="+req.RootDir)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return message.BuildException{ClassName: ClassCommandNotFound, Message: err.Error()}
	}
	b.logger.Debug("build command started",
		logging.String("command", b.command),
		logging.Int("pid", cmd.Process.Pid))

	var mu sync.Mutex
	parser := newOutputParser()
	handle := func(line string) error {
		mu.Lock()
		defer mu.Unlock()
		if err := emit(message.BuildMessage{Message: line}); err != nil {
			return err
		}
		for _, ev := range parser.Parse(line) {
			if err := emit(ev); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	for _, r := range []io.Reader{stdout, stderr} {
		g.Go(func() error {
			err := pumpLines(r, handle)
			if err != nil {
				// The client is gone; stop the command so the other pump drains.
				cancel()
			}
			return err
		})
	}
	pumpErr := g.Wait()
	waitErr := cmd.Wait()

	if pumpErr != nil {
		return fmt.Errorf("forward build output: %w", pumpErr)
	}
	for _, ev := range parser.Finish() {
		if err := emit(ev); err != nil {
			return fmt.Errorf("forward build output: %w", err)
		}
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return message.BuildException{
				ClassName: ClassBuildFailure,
				Message:   fmt.Sprintf("%s exited with status %d", b.command, exitErr.ExitCode()),
			}
		}
		return fmt.Errorf("wait for build command: %w", waitErr)
	}
	return nil
}

func pumpLines(r io.Reader, handle func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := handle(strings.TrimSuffix(scanner.Text(), "\r")); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// validateArgs rejects arguments the command line parser cannot interpret.
func validateArgs(args []string) error {
	for _, arg := range args {
		if strings.HasPrefix(arg, "---") {
			return message.BuildException{ClassName: message.ClassUnrecognizedOption, Message: "Unrecognized option: " + arg}
		}
	}
	return nil
}
