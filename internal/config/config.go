package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the on-disk locations shared by the client and daemons.
type Paths struct {
	RegistryDir string `toml:"registry_dir"`
	LogDir      string `toml:"log_dir"`
}

// Daemon contains configuration for spawning and running build daemons.
type Daemon struct {
	Executable          string   `toml:"executable"`
	BuildCommand        string   `toml:"build_command"`
	Options             []string `toml:"options"`
	IdleTimeoutSeconds  int      `toml:"idle_timeout_seconds"`
	StartTimeoutSeconds int      `toml:"start_timeout_seconds"`
}

// Client contains configuration for the interactive build client.
type Client struct {
	RenderIntervalMillis int  `toml:"render_interval_ms"`
	NoColor              bool `toml:"no_color"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mvnd.
//
// Configuration sections by subsystem:
//   - Paths: registry database, daemon sockets and log directory
//   - Daemon: executable, build command and lifecycle timeouts
//   - Client: live progress rendering
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Daemon  Daemon  `toml:"daemon"`
	Client  Client  `toml:"client"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("mvnd.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the registry and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RegistryDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RegistryPath returns the daemon registry database location.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.Paths.RegistryDir, "registry.db")
}

// ConnectLockPath returns the lock file that serializes daemon lookup and spawning.
func (c *Config) ConnectLockPath() string {
	return filepath.Join(c.Paths.RegistryDir, "connect.lock")
}

// DaemonSocketPath returns the unix socket a daemon with the given uid listens on.
func (c *Config) DaemonSocketPath(uid string) string {
	return filepath.Join(c.Paths.RegistryDir, uid+".sock")
}

// DaemonLockPath returns the single-instance lock file for a daemon uid.
func (c *Config) DaemonLockPath(uid string) string {
	return filepath.Join(c.Paths.RegistryDir, uid+".lock")
}

// DaemonLogPath returns the log file written by the daemon with the given uid.
func (c *Config) DaemonLogPath(uid string) string {
	return filepath.Join(c.Paths.LogDir, "daemon-"+uid+".log")
}

// ClientLogPath returns the log file written by the build client.
func (c *Config) ClientLogPath() string {
	return filepath.Join(c.Paths.LogDir, "mvnd-client.log")
}

// IdleTimeout returns how long a daemon may stay idle before exiting.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Daemon.IdleTimeoutSeconds) * time.Second
}

// StartTimeout returns how long the client waits for a spawned daemon.
func (c *Config) StartTimeout() time.Duration {
	return time.Duration(c.Daemon.StartTimeoutSeconds) * time.Second
}

// RenderInterval returns the minimum delay between two progress frames.
func (c *Config) RenderInterval() time.Duration {
	return time.Duration(c.Client.RenderIntervalMillis) * time.Millisecond
}

// DaemonExecutable returns the configured daemon binary, falling back to
// mvndd next to the running executable and finally to a PATH lookup.
func (c *Config) DaemonExecutable() string {
	if exe := strings.TrimSpace(c.Daemon.Executable); exe != "" {
		return exe
	}
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), defaultDaemonBinary)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return defaultDaemonBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
