package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"examdash/internal/config"
	"examdash/internal/dataset"
	"examdash/internal/warehouse"
)

// These variables are set by the main package.
var (
	LaunchTUI   func(cfg config.Config)
	StartServer func(cfg config.Config) error
	SetupLogger func(cfg config.Config) *slog.Logger
)

// HandleError prints error and exits.
func HandleError(err error, message string) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	os.Exit(1)
}

// resolveConfig layers .env, the TOML file, the environment and finally any
// flags the user set explicitly.
func resolveConfig(cmd *cobra.Command) config.Config {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		HandleError(err, "Failed to load config")
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataSource = dataSource
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		HandleError(err, "Failed to create data directory")
	}
	return cfg
}

func logger(cfg config.Config) *slog.Logger {
	if SetupLogger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return SetupLogger(cfg)
}

// loadDataset resolves the config and loads the dataset document.
func loadDataset(cmd *cobra.Command) (config.Config, *dataset.Dataset) {
	cfg := resolveConfig(cmd)
	ds, err := dataset.Load(commandContext(cmd), cfg.DataSource)
	if err != nil {
		logger(cfg).Error("Dataset load failed", "error", err, "source", cfg.DataSource)
		HandleError(err, "Failed to load dataset")
	}
	return cfg, ds
}

// openWarehouse opens the DuckDB file in the data directory.
func openWarehouse(cfg config.Config) *warehouse.Warehouse {
	w, err := warehouse.Open(cfg.WarehousePath(), logger(cfg))
	if err != nil {
		HandleError(err, "Failed to open warehouse")
	}
	return w
}

func printJSON(v any) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		HandleError(err, "Failed to encode JSON")
	}
	fmt.Println(string(output))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
