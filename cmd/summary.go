package cmd

import (
	"github.com/spf13/cobra"

	"examdash/internal/dashboard"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the overview aggregates",
	Long: `Print everything the overview draws as JSON: the score histograms,
subject averages, class averages, both leaderboards and descriptive
statistics of the total scores.

Example:
  examdash summary`,
	Run: func(cmd *cobra.Command, args []string) {
		_, ds := loadDataset(cmd)
		printJSON(dashboard.BuildOverview(ds))
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
