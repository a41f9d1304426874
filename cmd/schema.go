package cmd

import (
	"github.com/spf13/cobra"

	"examdash/internal/warehouse"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Retrieve a summary of the DuckDB warehouse schema",
	Long: `Retrieve a summary of the local DuckDB warehouse schema.
This command returns information about all tables and their columns.

Examples:
  examdash schema`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext(cmd)
		w := openWarehouse(resolveConfig(cmd))
		defer w.Close()

		tables, err := w.Tables(ctx)
		if err != nil {
			HandleError(err, "Failed to list tables")
		}

		schemas := make([]warehouse.TableSchema, 0, len(tables))
		for _, table := range tables {
			schema, err := w.Schema(ctx, table)
			if err != nil {
				HandleError(err, "Failed to read schema")
			}
			schemas = append(schemas, schema)
		}
		printJSON(schemas)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
