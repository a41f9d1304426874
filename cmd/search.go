package cmd

import (
	"github.com/spf13/cobra"

	"examdash/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for students",
	Long: `Search for students whose name contains the query. Matching is
case-sensitive. At most 10 matches are returned as JSON, in roster order.

Examples:
  examdash search 张
  examdash search 小明`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, ds := loadDataset(cmd)
		printJSON(search.Match(args[0], ds.Students))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
