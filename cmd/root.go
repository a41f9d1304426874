package cmd

import (
	"github.com/spf13/cobra"

	"examdash/internal/config"
)

var (
	dataSource string
	dataDir    string
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "examdash",
		Short: "Exam Dashboard - Compare student ranks across two exams",
		Long: `Exam Dashboard loads the comparison document produced from a monthly
exam and a midterm exam, and shows score distributions, subject and class
averages, improvement leaderboards and per-student rank changes.

When run without commands, it launches an interactive TUI.
Use subcommands for CLI mode with JSON output.`,
		Run: func(cmd *cobra.Command, args []string) {
			// No subcommand specified - launch TUI
			LaunchTUI(resolveConfig(cmd))
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataSource, "data", "D", config.DefaultDataSource, "Dataset document, a path or an http(s) URL")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", config.DefaultDataDir, "Directory for the log file and the DuckDB warehouse")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default $XDG_CONFIG_HOME/examdash/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
