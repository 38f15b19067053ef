package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeClient()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.RegistryDir) == "" {
		c.Paths.RegistryDir = defaultRegistryDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.RegistryDir, err = expandPath(strings.TrimSpace(c.Paths.RegistryDir)); err != nil {
		return fmt.Errorf("paths.registry_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDaemon() error {
	if value, ok := os.LookupEnv("MVND_BUILD_COMMAND"); ok && strings.TrimSpace(value) != "" {
		c.Daemon.BuildCommand = value
	}
	c.Daemon.BuildCommand = strings.TrimSpace(c.Daemon.BuildCommand)
	if c.Daemon.BuildCommand == "" {
		c.Daemon.BuildCommand = defaultBuildCommand
	}

	exe := strings.TrimSpace(c.Daemon.Executable)
	if strings.HasPrefix(exe, "~") || strings.ContainsRune(exe, '/') {
		expanded, err := expandPath(exe)
		if err != nil {
			return fmt.Errorf("daemon.executable: %w", err)
		}
		exe = expanded
	}
	c.Daemon.Executable = exe

	options := c.Daemon.Options[:0]
	for _, opt := range c.Daemon.Options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	c.Daemon.Options = options
	return nil
}

func (c *Config) normalizeClient() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Client.NoColor = true
	}
	if c.Client.RenderIntervalMillis == 0 {
		c.Client.RenderIntervalMillis = defaultRenderIntervalMs
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "json", "console":
	default:
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
