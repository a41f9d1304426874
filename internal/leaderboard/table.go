package leaderboard

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table lays out rows as aligned plain-text columns. Widths are measured in
// terminal cells so CJK names line up.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow(&b, headers, widths)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(&b, sep, widths)
	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(widths)-1 {
			b.WriteString(cell)
		} else {
			b.WriteString(runewidth.FillRight(cell, w))
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
}

// Text renders the board as a table, or the placeholder when empty.
func (b Board) Text() string {
	if b.Empty {
		return b.Title + "\n" + b.Placeholder + "\n"
	}
	rows := make([][]string, len(b.Entries))
	for i, e := range b.Entries {
		rows[i] = []string{e.Name, e.ClassLabel, e.Change}
	}
	return b.Title + "\n" + Table([]string{"姓名", "班级", "名次变化"}, rows)
}
