package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"examdash/internal/dashboard"
	"examdash/internal/insight"
	"examdash/internal/report"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the exam results using Claude",
	Long: `Ask a natural language question and get an answer from Claude,
grounded on the overview of the loaded dataset: score statistics,
subject and class averages, and both leaderboards.

Requires ANTHROPIC_API_KEY environment variable to be set.

Examples:
  examdash ask "哪个班级期中平均分最高?"
  examdash ask "Which subject improved the most?"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, ds := loadDataset(cmd)

		svc, err := insight.New(
			insight.WithAPIKey(cfg.AnthropicAPIKey),
			insight.WithModel(cfg.Model),
			insight.WithLogger(logger(cfg)),
		)
		if err != nil {
			HandleError(err, "Failed to initialize insight service")
		}

		ov := dashboard.BuildOverview(ds)
		answer, err := svc.Ask(commandContext(cmd), strings.Join(args, " "), report.Overview(ov.Aggregates, ov.Top, ov.Bottom))
		if err != nil {
			HandleError(err, "Failed to generate response")
		}
		fmt.Println(answer)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
