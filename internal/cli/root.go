// Package cli wires the formfill commands together.
package cli

import (
	"fmt"
	"os"

	"github.com/okian/formfill/internal/config"
	"github.com/okian/formfill/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formfill",
	Short: "Fill job application forms from remembered answers",
	Long: `formfill classifies the questions on an application form, fills each one
from the stored answer history, your profile or a drafted reply, and learns
from what you pick.

Run "formfill serve" for the answer backend, then "formfill fill <url>".`,
	SilenceUsage: true,
}

// Persistent flags
var (
	configPath string
	logLevel   string
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $"+config.EnvFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

// setup loads configuration and initializes the global logger.
func setup(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(config.EnvFile)
	}
	cfg, err := config.LoadFile(cmd.Context(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
