package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mvnd/internal/buildargs"
	"mvnd/internal/config"
	"mvnd/internal/logging"
	"mvnd/internal/terminal"
)

// errBuildFailed signals a session that ended with a fatal error. The error
// has already been shown to the user by the time it is returned.
var errBuildFailed = errors.New("build failed")

// client carries what every mvnd action needs.
type client struct {
	inv        buildargs.Invocation
	cfg        *config.Config
	configPath string
	term       *terminal.Terminal
	logger     *slog.Logger
	workingDir string
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "mvnd [options] [<goal(s)>] [<phase(s)>]",
		Short:              "Maven daemon client",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := buildargs.Parse(args)

			cfg, configPath, configExists, err := config.Load(strings.TrimSpace(inv.ConfigPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			if !configExists {
				// Spawned daemons only get --config for a file that exists.
				configPath = ""
			}

			level := cfg.Logging.Level
			if inv.Debug {
				level = "debug"
			}
			logger, closer, err := logging.New(logging.Options{
				Level:       level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{cfg.ClientLogPath()},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer closer.Close()

			workingDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}

			c := &client{
				inv:        inv,
				cfg:        cfg,
				configPath: configPath,
				term:       terminal.New(cmd.OutOrStdout(), terminal.WithNoColor(cfg.Client.NoColor)),
				logger:     logging.NewComponentLogger(logger, "client"),
				workingDir: workingDir,
			}
			defer c.term.Flush()
			return c.run(cmd)
		},
	}
}

func (c *client) run(cmd *cobra.Command) error {
	c.logger.Debug("client invocation",
		logging.Strings("args", c.inv.Args),
		logging.String("config", c.configPath),
		logging.String("working_dir", c.workingDir))

	if c.inv.Banner() {
		if err := printBanner(c.term, c.term.Heading()); err != nil {
			return err
		}
		if c.inv.PrintVersion {
			return nil
		}
	}

	switch {
	case c.inv.Status:
		return c.status(cmd.Context())
	case c.inv.Stop:
		return c.stop(cmd.Context())
	default:
		return c.build(cmd.Context())
	}
}
