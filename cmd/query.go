package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queryString string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the warehouse (DuckDB SQL)",
	Long: `Execute the requested QUERY against the DuckDB warehouse written by
the import command. The query can be any valid DuckDB SQL query, including
SELECT, DESCRIBE, SHOW TABLES, etc. Every imported column is VARCHAR.

Examples:
  examdash query --sql "SELECT * FROM comparison LIMIT 5"
  examdash query --sql "SELECT Class_Midterm, count(*) FROM comparison GROUP BY 1"
  examdash query --sql "SHOW TABLES"`,
	Run: func(cmd *cobra.Command, args []string) {
		if queryString == "" {
			HandleError(fmt.Errorf("query is required"), "Missing query parameter")
		}

		w := openWarehouse(resolveConfig(cmd))
		defer w.Close()

		rows, err := w.ExecuteQuery(commandContext(cmd), queryString)
		if err != nil {
			HandleError(err, "Failed to execute query")
		}
		printJSON(rows)
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryString, "sql", "q", "", "SQL query to execute (required)")
	_ = queryCmd.MarkFlagRequired("sql")
	rootCmd.AddCommand(queryCmd)
}
