package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/raykavin/orbrun"
	"github.com/raykavin/orbrun/pkg/config"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	dateLayout = "2006-01-02"
)

// Command line flags
var (
	configPath string
	envFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "orbrun",
		Short:   "Opening range breakout backtests with higher timeframe context",
		Version: "1.0.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(envFile)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Environment file loaded before the configuration")

	rootCmd.AddCommand(
		buildBacktestCmd(),
		buildCompareCmd(),
		buildOptimizeCmd(),
		buildDownloadCmd(),
		buildInitCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnv reads path into the environment, a missing file is ignored
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig reads the configuration and builds a logger from its log section
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := orbrun.NewLogger(cfg.Log.Level, cfg.Log.TimeFormat, cfg.Log.Color, cfg.Log.JSON)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: log: %v", core.ErrConfiguration, err)
	}
	return cfg, log, nil
}

func buildInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists", configPath)
			}
			if err := config.WriteDefault(configPath); err != nil {
				return err
			}
			orbrun.DefaultLog.Infof("Configuration written to %s", configPath)
			return nil
		},
	}
}
