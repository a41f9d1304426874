// Package leaderboard turns the pre-sorted improver lists into render lists
// with signed change strings and a style key per row.
package leaderboard

import (
	"examdash/internal/dataset"
	"examdash/internal/rankdelta"
)

// Placeholder is shown in place of an empty board.
const Placeholder = "暂无数据"

// Titles of the two boards.
const (
	TopTitle    = "进步榜"
	BottomTitle = "退步榜"
)

// Entry is one rendered row.
type Entry struct {
	Name           string                   `json:"name"`
	ClassLabel     string                   `json:"class"`
	Change         string                   `json:"change"`
	Style          string                   `json:"style"`
	Classification rankdelta.Classification `json:"classification"`
}

// Board is a titled render list. Empty boards carry the placeholder text.
type Board struct {
	Title       string  `json:"title"`
	Entries     []Entry `json:"entries"`
	Empty       bool    `json:"empty"`
	Placeholder string  `json:"placeholder,omitempty"`
}

// Render keeps the source order of improvers.
func Render(title string, improvers []dataset.Improver) Board {
	b := Board{Title: title, Entries: make([]Entry, 0, len(improvers))}
	for _, imp := range improvers {
		c := rankdelta.Classify(imp.RankChange)
		b.Entries = append(b.Entries, Entry{
			Name:           imp.Name,
			ClassLabel:     string(imp.ClassLabel),
			Change:         c.Signed(),
			Style:          c.Category.StyleKey(),
			Classification: c,
		})
	}
	if len(b.Entries) == 0 {
		b.Empty = true
		b.Placeholder = Placeholder
	}
	return b
}

// Both renders the top and bottom boards of ds.
func Both(ds *dataset.Dataset) (top, bottom Board) {
	return Render(TopTitle, ds.TopImprovers), Render(BottomTitle, ds.BottomImprovers)
}
