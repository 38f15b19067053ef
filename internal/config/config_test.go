package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mvnd/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "mvnd", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}

	wantRegistry := filepath.Join(tempHome, ".local", "share", "mvnd", "registry")
	if cfg.Paths.RegistryDir != wantRegistry {
		t.Fatalf("unexpected registry dir: got %q want %q", cfg.Paths.RegistryDir, wantRegistry)
	}
	if cfg.RegistryPath() != filepath.Join(wantRegistry, "registry.db") {
		t.Fatalf("unexpected registry path %q", cfg.RegistryPath())
	}
	if cfg.Daemon.BuildCommand != "mvn" {
		t.Fatalf("unexpected build command %q", cfg.Daemon.BuildCommand)
	}
	if cfg.RenderInterval() != 10*time.Millisecond {
		t.Fatalf("unexpected render interval %v", cfg.RenderInterval())
	}
	if cfg.IdleTimeout() != 3*time.Hour {
		t.Fatalf("unexpected idle timeout %v", cfg.IdleTimeout())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "mvnd.toml")
	contents := `
[paths]
registry_dir = "~/reg"

[daemon]
build_command = "  ./mvnw  "
options = ["-Xmx1g", "  ", "-Dfoo=bar"]
start_timeout_seconds = 5

[client]
render_interval_ms = 25

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.RegistryDir != filepath.Join(tempHome, "reg") {
		t.Fatalf("unexpected registry dir %q", cfg.Paths.RegistryDir)
	}
	if cfg.Daemon.BuildCommand != "./mvnw" {
		t.Fatalf("unexpected build command %q", cfg.Daemon.BuildCommand)
	}
	if strings.Join(cfg.Daemon.Options, ",") != "-Xmx1g,-Dfoo=bar" {
		t.Fatalf("unexpected options %v", cfg.Daemon.Options)
	}
	if cfg.StartTimeout() != 5*time.Second {
		t.Fatalf("unexpected start timeout %v", cfg.StartTimeout())
	}
	if cfg.RenderInterval() != 25*time.Millisecond {
		t.Fatalf("unexpected render interval %v", cfg.RenderInterval())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"idle timeout":  "[daemon]\nidle_timeout_seconds = -1\n",
		"start timeout": "[daemon]\nstart_timeout_seconds = 0\n",
		"log level":     "[logging]\nlevel = \"loud\"\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MVND_BUILD_COMMAND", "gradle")
	t.Setenv("NO_COLOR", "1")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Daemon.BuildCommand != "gradle" {
		t.Fatalf("expected env build command, got %q", cfg.Daemon.BuildCommand)
	}
	if !cfg.Client.NoColor {
		t.Fatal("expected NO_COLOR to disable color")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config did not load: exists=%v err=%v", exists, err)
	}
}

func TestProjectRoot(t *testing.T) {
	t.Setenv("MAVEN_PROJECTBASEDIR", "")
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".mvn"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nested := filepath.Join(root, "module-a", "src")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if got := config.ProjectRoot(nested); got != root {
		t.Fatalf("ProjectRoot(nested) = %q, want %q", got, root)
	}

	plain := t.TempDir()
	if got := config.ProjectRoot(plain); got != plain {
		t.Fatalf("ProjectRoot(plain) = %q, want %q", got, plain)
	}

	t.Setenv("MAVEN_PROJECTBASEDIR", "/srv/project")
	if got := config.ProjectRoot(nested); got != "/srv/project" {
		t.Fatalf("expected env override, got %q", got)
	}
}
