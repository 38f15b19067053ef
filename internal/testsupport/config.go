package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mvnd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The base directory is created directly under the system temp dir so daemon
// socket paths stay well below the Unix socket length limit.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base, err := os.MkdirTemp("", "mvnd")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(base) })

	cfgVal := config.Default()
	cfgVal.Paths.RegistryDir = filepath.Join(base, "reg")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Daemon.StartTimeoutSeconds = 5
	cfgVal.Client.RenderIntervalMillis = 0

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithBuildScript writes an executable shell script and points the daemon
// build command at it.
func WithBuildScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.BuildCommand = WriteExecutable(b.t, filepath.Join(b.baseDir, "bin", "mvn"), script)
	}
}

// WithDaemonExecutable overrides the daemon binary the connector launches.
func WithDaemonExecutable(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.Executable = path
	}
}

// WriteExecutable writes a /bin/sh script at path and returns the path.
func WriteExecutable(t testing.TB, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RegistryDir)
}
