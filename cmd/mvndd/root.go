package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mvnd/internal/config"
	"mvnd/internal/daemonrun"
)

func newRootCommand() *cobra.Command {
	var (
		uid        string
		configFlag string
		foreground bool
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:           "mvndd --uid <uid>",
		Short:         "Maven build daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(uid) == "" {
				return fmt.Errorf("--uid is required")
			}
			cfg, _, _, err := config.Load(strings.TrimSpace(configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				UID:        uid,
				LogLevel:   logLevel,
				Foreground: foreground,
			})
		},
	}

	rootCmd.Flags().StringVar(&uid, "uid", "", "Registry identifier of this daemon")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVar(&foreground, "foreground", false, "Also write logs to stderr")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCommand(&configFlag))
	rootCmd.AddCommand(newLogsCommand(&configFlag))
	return rootCmd
}
