package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"examdash/internal/dataset"
)

var importOutput string

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Build the dataset document from a comparison table",
	Long: `Load the per-student comparison table into the DuckDB warehouse and
derive the dataset document from it.

The input is either a CSV file or an .xlsx workbook with a
Student_Comparison sheet. The table is kept in the warehouse afterwards,
so it can be explored with the query and schema commands.

Examples:
  examdash import analysis_result.xlsx
  examdash import comparison.csv -o dashboard/data.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := resolveConfig(cmd)
		ctx := commandContext(cmd)

		w := openWarehouse(cfg)
		defer w.Close()

		if err := w.ImportFile(ctx, args[0]); err != nil {
			HandleError(err, "Failed to import comparison table")
		}
		ds, err := w.BuildDataset(ctx)
		if err != nil {
			HandleError(err, "Failed to build dataset")
		}

		out := importOutput
		if out == "" {
			if dataset.IsRemote(cfg.DataSource) {
				HandleError(fmt.Errorf("dataset source %s is a URL", cfg.DataSource), "Use -o to choose an output file")
			}
			out = cfg.DataSource
		}
		if err := dataset.Save(out, ds); err != nil {
			HandleError(err, "Failed to write dataset")
		}

		fmt.Printf("✓ Imported %d students, %d subjects, %d classes\n",
			len(ds.Students), len(ds.SubjectStats), len(ds.ClassStats))
		fmt.Printf("  Dataset written to %s\n", out)
	},
}

func init() {
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Output path (default: the configured dataset source)")
	rootCmd.AddCommand(importCmd)
}
