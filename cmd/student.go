package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"examdash/internal/detail"
	"examdash/internal/insight"
	"examdash/internal/report"
)

var (
	studentReport  bool
	studentNarrate bool
	studentWidth   int
)

// StudentOutput is the JSON form of a student's comparison.
type StudentOutput struct {
	detail.Projection
	Counts detail.Tally `json:"counts"`
}

var studentCmd = &cobra.Command{
	Use:   "student [student-id]",
	Short: "Show one student's rank changes",
	Long: `Show a student's overall and per-subject ranks for both exams.
Returns the comparison series as JSON, or a rendered markdown report.

With --narrate, Claude adds a short commentary to the report.
This requires ANTHROPIC_API_KEY to be set.

Examples:
  examdash student 2024001
  examdash student --report 2024001
  examdash student --narrate 2024001`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, ds := loadDataset(cmd)

		s, ok := ds.Student(args[0])
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "No student found with ID: %s\n", args[0])
			return
		}
		p := detail.Project(s)

		if !studentReport && !studentNarrate {
			printJSON(StudentOutput{Projection: p, Counts: p.Counts()})
			return
		}

		md := report.Student(p)
		if studentNarrate {
			svc, err := insight.New(
				insight.WithAPIKey(cfg.AnthropicAPIKey),
				insight.WithModel(cfg.Model),
				insight.WithLogger(logger(cfg)),
			)
			if err != nil {
				HandleError(err, "Failed to initialize insight service")
			}
			narrative, err := svc.Narrate(commandContext(cmd), p)
			if err != nil {
				HandleError(err, "Failed to generate narrative")
			}
			md = report.AppendNarrative(md, narrative)
		}

		rendered, err := report.Terminal(md, studentWidth)
		if err != nil {
			// fall back to the raw markdown
			fmt.Println(md)
			return
		}
		fmt.Print(rendered)
	},
}

func init() {
	studentCmd.Flags().BoolVarP(&studentReport, "report", "r", false, "Render a markdown report instead of JSON")
	studentCmd.Flags().BoolVar(&studentNarrate, "narrate", false, "Append an AI narrative to the report")
	studentCmd.Flags().IntVarP(&studentWidth, "width", "w", 100, "Report width in columns")
	rootCmd.AddCommand(studentCmd)
}
