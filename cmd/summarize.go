package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"examdash/internal/warehouse"
)

var queryOrTable string

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the contents of a warehouse table or query",
	Long: `Run DuckDB's SUMMARIZE over a table or a query. It computes min, max,
approx_unique, avg, std, q25, q50, q75 and count for every column, along
with the column type and the percentage of NULL values.

Examples:
  examdash summarize
  examdash summarize --table "SELECT TRY_CAST(Total_Score_Midterm AS DOUBLE) AS score FROM comparison"`,
	Run: func(cmd *cobra.Command, args []string) {
		w := openWarehouse(resolveConfig(cmd))
		defer w.Close()

		rows, err := w.ExecuteQuery(commandContext(cmd), fmt.Sprintf("SUMMARIZE %s", queryOrTable))
		if err != nil {
			HandleError(err, "Failed to execute summarize query")
		}
		printJSON(rows)
	},
}

func init() {
	summarizeCmd.Flags().StringVarP(&queryOrTable, "table", "t", warehouse.ComparisonTable, "Table name or query to summarize")
	rootCmd.AddCommand(summarizeCmd)
}
