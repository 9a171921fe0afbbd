package main

import (
	"fmt"

	"infocripto/internal/config"
	"infocripto/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "infocripto",
		Short:        "infoCripto backend",
		SilenceUsage:  true,
	}
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

// loadConfig reads and validates the environment and initialises the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitLogger(cfg)

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		logger.Log.Warn("config: " + w)
	}
	if err != nil {
		logger.Log.Error("invalid configuration", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
