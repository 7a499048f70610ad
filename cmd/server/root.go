package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/competency-assessment/internal/config"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
)

var rootCmd = &cobra.Command{
	Use:           "competency-assessment",
	Short:         "Digital competency assessment service",
	Long:          "Three-step A1-C2 digital competency assessment with timed sessions, scoring and certification.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// bootstrap loads the configuration and installs the process logger. The
// returned closer flushes the log file when one is configured.
func bootstrap() (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, closer := utils.NewLogger(cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, closer, nil
}
