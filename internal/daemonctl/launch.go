package daemonctl

import (
	"context"
	"os/exec"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

// Spawned describes a daemon process that was started.
type Spawned struct {
	UID        string
	PID        int
	WorkingDir string
	Command    []string
}

// Launcher starts a new daemon process.
type Launcher interface {
	Launch(ctx context.Context) (Spawned, error)
}

// ProcessLauncher starts detached mvndd processes.
type ProcessLauncher struct {
	executable string
	configPath string
	workingDir string
	newUID     func() string
}

// NewProcessLauncher returns a launcher running executable in workingDir. A
// non-empty configPath is passed through so client and daemon agree on paths.
func NewProcessLauncher(executable, configPath, workingDir string) *ProcessLauncher {
	return &ProcessLauncher{
		executable: executable,
		configPath: configPath,
		workingDir: workingDir,
		newUID:     uuid.NewString,
	}
}

// Command returns the argv used to start the daemon with uid.
func (l *ProcessLauncher) Command(uid string) []string {
	args := []string{l.executable, "--uid", uid}
	if cfg := strings.TrimSpace(l.configPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	return args
}

// Launch starts a daemon in its own session and returns without waiting for
// it. The daemon registers itself once it is ready to accept builds.
func (l *ProcessLauncher) Launch(ctx context.Context) (Spawned, error) {
	uid := l.newUID()
	spawned := Spawned{UID: uid, WorkingDir: l.workingDir, Command: l.Command(uid)}
	fail := func(err error) (Spawned, error) {
		return Spawned{}, &StartError{UID: uid, WorkingDir: l.workingDir, Command: spawned.Command, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if strings.TrimSpace(l.executable) == "" {
		return fail(errEmptyExecutable)
	}

	// Not CommandContext: the daemon must outlive this client.
	proc := exec.Command(spawned.Command[0], spawned.Command[1:]...)
	proc.Dir = l.workingDir
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fail(err)
	}
	spawned.PID = proc.Process.Pid
	if err := proc.Process.Release(); err != nil {
		return fail(err)
	}
	return spawned, nil
}
