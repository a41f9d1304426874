package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"examdash/internal/detail"
	"examdash/internal/leaderboard"
	"examdash/internal/series"
)

var histogramCmd = &cobra.Command{
	Use:   "histogram",
	Short: "Show the total score distribution of both exams",
	Long: `Bin every student's total score into the fixed buckets
0-300, 300-350, ..., 550-600 and print the counts per exam.

Example:
  examdash histogram`,
	Run: func(cmd *cobra.Command, args []string) {
		_, ds := loadDataset(cmd)
		dist := series.BuildDistribution(ds)

		rows := make([][]string, len(dist.Labels))
		for i, label := range dist.Labels {
			rows[i] = []string{label, strconv.Itoa(dist.Monthly[i]), strconv.Itoa(dist.Midterm[i])}
		}
		fmt.Print(leaderboard.Table([]string{"分数段", detail.MonthlyName, detail.MidtermName}, rows))
	},
}

func init() {
	rootCmd.AddCommand(histogramCmd)
}
