package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"examdash/internal/detail"
	"examdash/internal/leaderboard"
	"examdash/internal/rankdelta"
	"examdash/internal/series"
)

const (
	midtermColor = "#8b5cf6"
	labelWidth   = 10
)

var (
	monthlyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(rankdelta.MonthlyColor))
	midtermStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(midtermColor))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chartTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
)

// bar draws one horizontal bar scaled against max, followed by text.
func bar(label string, value, max float64, width int, style lipgloss.Style, text string) string {
	filledWidth := 0
	if max > 0 && value > 0 {
		filledWidth = int(float64(width) * math.Min(value/max, 1))
	}

	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	return fmt.Sprintf("%s %s%s %s",
		padLabel(label),
		style.Render(filled),
		emptyStyle.Render(empty),
		text,
	)
}

// padLabel pads or truncates label to labelWidth terminal cells.
func padLabel(label string) string {
	return runewidth.FillRight(runewidth.Truncate(label, labelWidth, "…"), labelWidth)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

func legend() string {
	return monthlyStyle.Render("█ "+detail.MonthlyName) + "  " + midtermStyle.Render("█ "+detail.MidtermName)
}

// DistributionChart draws both sittings' histograms bucket by bucket.
func DistributionChart(d series.Distribution, width int) string {
	top := 0
	for i := range d.Labels {
		top = max(top, d.Monthly[i], d.Midterm[i])
	}

	var b strings.Builder
	b.WriteString(chartTitle.Render("总分分布") + "  " + legend() + "\n")
	for i, label := range d.Labels {
		b.WriteString(bar(label, float64(d.Monthly[i]), float64(top), width, monthlyStyle, strconv.Itoa(d.Monthly[i])))
		b.WriteString("\n")
		b.WriteString(bar("", float64(d.Midterm[i]), float64(top), width, midtermStyle, strconv.Itoa(d.Midterm[i])))
		b.WriteString("\n")
	}
	if top > 0 {
		b.WriteString(padLabel("") + " " +
			monthlyStyle.Render(Sparkline(countsToFloats(d.Monthly))) + "  " +
			midtermStyle.Render(Sparkline(countsToFloats(d.Midterm))) + "\n")
	}
	return b.String()
}

// SubjectChart draws each subject's averages on the shared radar scale.
func SubjectChart(s series.SubjectSeries, width int) string {
	var b strings.Builder
	b.WriteString(chartTitle.Render("各科平均分") + "  " + legend() + "\n")
	if len(s.Labels) == 0 {
		b.WriteString(emptyStyle.Render(leaderboard.Placeholder) + "\n")
		return b.String()
	}

	for i, label := range s.Labels {
		b.WriteString(bar(label, s.Monthly[i], s.Max, width, monthlyStyle, formatValue(s.Monthly[i])))
		b.WriteString("\n")
		delta := formatValue(s.Delta[i])
		if s.Delta[i] > 0 {
			delta = "+" + delta
		}
		b.WriteString(bar("", s.Midterm[i], s.Max, width, midtermStyle, formatValue(s.Midterm[i])+" ("+delta+")"))
		b.WriteString("\n")
	}
	return b.String()
}

// ClassChart draws the midterm class averages.
func ClassChart(c series.ClassSeries, width int) string {
	var b strings.Builder
	b.WriteString(chartTitle.Render("班级期中平均分") + "\n")
	if len(c.Labels) == 0 {
		b.WriteString(emptyStyle.Render(leaderboard.Placeholder) + "\n")
		return b.String()
	}

	top := 0.0
	for _, v := range c.Values {
		top = math.Max(top, v)
	}
	for i, label := range c.Labels {
		b.WriteString(bar(label+"班", c.Values[i], top, width, midtermStyle, c.ValueLabels[i]))
		b.WriteString("\n")
	}
	return b.String()
}

// RankChart draws a student's ranks, one pair of bars per category. The
// midterm bar takes the color of its classification and the row at cursor
// is marked.
func RankChart(p detail.Projection, width, cursor int) string {
	top := 0
	for i := range p.Labels {
		top = max(top, p.Monthly[i], p.Midterm[i])
	}

	var b strings.Builder
	b.WriteString(chartTitle.Render("排名对比 (数值越小越好)") + "  " + legend() + "\n")
	for i, label := range p.Labels {
		c := p.Classifications[i]
		marker := "  "
		if i == cursor {
			marker = "▶ "
		}
		style := lipgloss.NewStyle().Foreground(c.Category.TermColor())

		b.WriteString(marker + bar(label, float64(p.Monthly[i]), float64(top), width, monthlyStyle, rankText(p.Monthly[i])))
		b.WriteString("\n")
		b.WriteString("  " + bar("", float64(p.Midterm[i]), float64(top), width, style, rankText(p.Midterm[i])))
		b.WriteString("  " + style.Render(c.Signed()+" "+c.Category.Label()))
		b.WriteString("\n")
	}
	return b.String()
}

func rankText(r int) string {
	if r <= 0 {
		return "-"
	}
	return strconv.Itoa(r)
}

// TooltipBox renders the tooltip of the data point at i.
func TooltipBox(p detail.Projection, i int) string {
	text := p.Tooltip(i)
	if text == "" {
		return ""
	}
	color := lipgloss.Color("62")
	if i >= 0 && i < len(p.Classifications) {
		color = p.Classifications[i].Category.TermColor()
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(text)
}

// LeaderboardPanel renders a board as a table with each row colored by its
// style key.
func LeaderboardPanel(board leaderboard.Board) string {
	title := chartTitle.Render(board.Title)
	if board.Empty {
		return title + "\n" + emptyStyle.Render(board.Placeholder)
	}

	rows := make([][]string, len(board.Entries))
	for i, e := range board.Entries {
		rows[i] = []string{e.Name, e.ClassLabel, e.Change}
	}
	lines := strings.Split(strings.TrimRight(leaderboard.Table([]string{"姓名", "班级", "名次变化"}, rows), "\n"), "\n")

	// header and separator come first
	for i, e := range board.Entries {
		style := lipgloss.NewStyle().Foreground(e.Classification.Category.TermColor())
		lines[i+2] = style.Render(lines[i+2])
	}
	return title + "\n" + strings.Join(lines, "\n")
}

// InfoBox creates a styled info box with a value.
func InfoBox(label string, value string, color lipgloss.Color) string {
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("240"))

	valueStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(color)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)

	return boxStyle.Render(labelStyle.Render(label) + " " + valueStyle.Render(value))
}

// SummaryCards lays out the summary statistics side by side.
func SummaryCards(s series.Summary) string {
	change := formatValue(s.MeanChange)
	if s.MeanChange > 0 {
		change = "+" + change
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		InfoBox("学生人数", strconv.Itoa(s.TotalStudents), lipgloss.Color("62")),
		InfoBox(detail.MonthlyName+"均分", formatValue(s.Monthly.Mean), lipgloss.Color(rankdelta.MonthlyColor)),
		InfoBox(detail.MidtermName+"均分", formatValue(s.Midterm.Mean), lipgloss.Color(midtermColor)),
		InfoBox("均分变化", change, lipgloss.Color("226")),
	)
}

// Sparkline creates a simple sparkline from values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	// Sparkline characters from bottom to top
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var result strings.Builder
	for _, v := range values {
		idx := len(chars) / 2
		if hi != lo {
			idx = int((v - lo) / (hi - lo) * float64(len(chars)-1))
		}
		result.WriteRune(chars[idx])
	}
	return result.String()
}

// countsToFloats widens histogram counts for Sparkline.
func countsToFloats(counts []int) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = float64(c)
	}
	return out
}
