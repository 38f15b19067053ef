package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateClient(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDaemon() error {
	if c.Daemon.IdleTimeoutSeconds <= 0 {
		return errors.New("daemon.idle_timeout_seconds must be positive")
	}
	if c.Daemon.StartTimeoutSeconds <= 0 {
		return errors.New("daemon.start_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateClient() error {
	if c.Client.RenderIntervalMillis < 0 {
		return errors.New("client.render_interval_ms must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
