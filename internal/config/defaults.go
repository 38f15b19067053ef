package config

const (
	defaultConfigPath          = "~/.config/mvnd/config.toml"
	defaultRegistryDir         = "~/.local/share/mvnd/registry"
	defaultLogDir              = "~/.local/share/mvnd/logs"
	defaultDaemonBinary        = "mvndd"
	defaultBuildCommand        = "mvn"
	defaultIdleTimeoutSeconds  = 3 * 60 * 60
	defaultStartTimeoutSeconds = 30
	defaultRenderIntervalMs    = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RegistryDir: defaultRegistryDir,
			LogDir:      defaultLogDir,
		},
		Daemon: Daemon{
			BuildCommand:        defaultBuildCommand,
			IdleTimeoutSeconds:  defaultIdleTimeoutSeconds,
			StartTimeoutSeconds: defaultStartTimeoutSeconds,
		},
		Client: Client{
			RenderIntervalMillis: defaultRenderIntervalMs,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
