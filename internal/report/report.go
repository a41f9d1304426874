// Package report writes markdown summaries of the dashboard for the
// terminal, the web detail page and the insight prompts.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"

	"examdash/internal/detail"
	"examdash/internal/leaderboard"
	"examdash/internal/series"
)

// NarrativeHeading introduces an AI narrative appended to a report.
const NarrativeHeading = "## 点评"

// Student renders a student's projection as a markdown report.
func Student(p detail.Projection) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s)\n\n", escape(p.Name), escape(p.StudentID))
	if p.ClassLabel != "" {
		fmt.Fprintf(&b, "班级: %s\n\n", escape(p.ClassLabel))
	}

	fmt.Fprintf(&b, "| 科目 | %s | %s | 变化 |\n", detail.MonthlyName, detail.MidtermName)
	b.WriteString("|---|---:|---:|---|\n")
	for i, label := range p.Labels {
		c := p.Classifications[i]
		fmt.Fprintf(&b, "| %s | %s | %s | %s %s |\n",
			escape(label), rank(p.Monthly[i]), rank(p.Midterm[i]), c.Signed(), c.Category.Label())
	}

	t := p.Counts()
	fmt.Fprintf(&b, "\n进步 %d 科, 退步 %d 科, 持平 %d 科\n", t.Improved, t.Declined, t.Unchanged)
	return b.String()
}

// Overview renders the aggregate view as a markdown report.
func Overview(agg series.Aggregates, top, bottom leaderboard.Board) string {
	var b strings.Builder
	s := agg.Summary

	b.WriteString("# 成绩概览\n\n")
	fmt.Fprintf(&b, "学生人数: %d\n\n", s.TotalStudents)
	fmt.Fprintf(&b, "| 考试 | 平均分 | 中位数 | 标准差 | 最低 | 最高 |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, row := range []struct {
		name string
		s    series.SittingSummary
	}{{detail.MonthlyName, s.Monthly}, {detail.MidtermName, s.Midterm}} {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			row.name, num(row.s.Mean), num(row.s.Median), num(row.s.StdDev), num(row.s.Min), num(row.s.Max))
	}

	if len(agg.Subjects.Labels) > 0 {
		fmt.Fprintf(&b, "\n## 各科平均分\n\n| 科目 | %s | %s | 变化 |\n|---|---:|---:|---:|\n", detail.MonthlyName, detail.MidtermName)
		for i, label := range agg.Subjects.Labels {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escape(label), num(agg.Subjects.Monthly[i]), num(agg.Subjects.Midterm[i]), num(agg.Subjects.Delta[i]))
		}
	}

	if len(agg.Classes.Labels) > 0 {
		b.WriteString("\n## 班级期中平均分\n\n| 班级 | 平均分 |\n|---|---:|\n")
		for i, label := range agg.Classes.Labels {
			fmt.Fprintf(&b, "| %s | %s |\n", escape(label), agg.Classes.ValueLabels[i])
		}
	}

	for _, board := range []leaderboard.Board{top, bottom} {
		fmt.Fprintf(&b, "\n## %s\n\n", board.Title)
		if board.Empty {
			b.WriteString(board.Placeholder + "\n")
			continue
		}
		for i, e := range board.Entries {
			fmt.Fprintf(&b, "%d. %s (%s班) %s\n", i+1, escape(e.Name), escape(e.ClassLabel), e.Change)
		}
	}
	return b.String()
}

// AppendNarrative adds a narrative section to a report.
func AppendNarrative(md, narrative string) string {
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return md
	}
	return strings.TrimRight(md, "\n") + "\n\n" + NarrativeHeading + "\n\n" + narrative + "\n"
}

// HTML converts a markdown report to an HTML fragment. Raw HTML in the
// markdown is dropped, so dataset text can never reach the page as markup.
func HTML(md string) []byte {
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.ToHTML([]byte(md), nil, renderer)
}

// Terminal renders a markdown report for a terminal of the given width.
func Terminal(md string, width int) (string, error) {
	// borders, padding and glamour's own gutter
	renderWidth := width - 6
	if renderWidth < 40 {
		renderWidth = 40
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

// escape backslash-escapes dataset text so it stays literal inside markdown
// headings and table cells.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// rank renders an absent rank as a dash.
func rank(r int) string {
	if r <= 0 {
		return "-"
	}
	return strconv.Itoa(r)
}

// num formats f with at most two decimals.
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
