package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"examdash/internal/leaderboard"
)

var leaderboardJSON bool

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top and bottom rank improvers",
	Long: `Show the five students with the largest rank improvement and the five
with the largest decline, as aligned tables or as JSON.

Examples:
  examdash leaderboard
  examdash leaderboard --json`,
	Run: func(cmd *cobra.Command, args []string) {
		_, ds := loadDataset(cmd)
		top, bottom := leaderboard.Both(ds)

		if leaderboardJSON {
			printJSON(map[string]leaderboard.Board{"top": top, "bottom": bottom})
			return
		}
		fmt.Println(top.Text())
		fmt.Println(bottom.Text())
	},
}

func init() {
	leaderboardCmd.Flags().BoolVar(&leaderboardJSON, "json", false, "Print the boards as JSON")
	rootCmd.AddCommand(leaderboardCmd)
}
