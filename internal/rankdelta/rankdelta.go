// Package rankdelta classifies rank changes. It is the single source of the
// category, sign and magnitude shown on leaderboards and student charts.
//
// Rank numbers get smaller as a student improves, so a positive change
// (monthly minus midterm) is an improvement. The dashboard colors
// improvements warm red and declines cool green.
package rankdelta

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Category is a stable presentation category for a change.
type Category int

const (
	Unchanged Category = iota
	Improved
	Declined
)

// MonthlyColor is the single fixed color for the monthly series.
const MonthlyColor = "#3b82f6"

func (c Category) String() string {
	switch c {
	case Improved:
		return "Improved"
	case Declined:
		return "Declined"
	default:
		return "Unchanged"
	}
}

// StyleKey is the token rendering collaborators map to a style.
func (c Category) StyleKey() string {
	switch c {
	case Improved:
		return "improved"
	case Declined:
		return "declined"
	default:
		return "unchanged"
	}
}

// Color is the hex color for the category.
func (c Category) Color() string {
	switch c {
	case Improved:
		return "#ef4444"
	case Declined:
		return "#10b981"
	default:
		return "#cccccc"
	}
}

// TermColor is the terminal color for the category.
func (c Category) TermColor() lipgloss.Color {
	switch c {
	case Improved:
		return lipgloss.Color("196")
	case Declined:
		return lipgloss.Color("42")
	default:
		return lipgloss.Color("250")
	}
}

// Label is the display label for the category.
func (c Category) Label() string {
	switch c {
	case Improved:
		return "进步"
	case Declined:
		return "退步"
	default:
		return "持平"
	}
}

// Classification is the result of Classify. Magnitude is the absolute
// change, saturating at math.MaxInt for a change of math.MinInt.
type Classification struct {
	Change    int      `json:"change"`
	Category  Category `json:"-"`
	Magnitude int      `json:"magnitude"`
	Sign      string   `json:"sign"`
}

// Classify maps a rank change to its category. Declines carry an empty sign
// because the value already has its minus.
func Classify(change int) Classification {
	switch {
	case change > 0:
		return Classification{Change: change, Category: Improved, Magnitude: change, Sign: "+"}
	case change < 0:
		return Classification{Change: change, Category: Declined, Magnitude: magnitude(change), Sign: ""}
	default:
		return Classification{Change: 0, Category: Unchanged, Magnitude: 0, Sign: ""}
	}
}

// magnitude negates a negative change without overflowing.
func magnitude(change int) int {
	if change == math.MinInt {
		return math.MaxInt
	}
	return -change
}

// Signed formats the change with its sign, e.g. "+5", "-3", "0".
func (c Classification) Signed() string {
	return fmt.Sprintf("%s%d", c.Sign, c.Change)
}

// Describe is the tooltip phrase, e.g. "进步 5 名". Zero renders as the
// neutral label without a number.
func (c Classification) Describe() string {
	if c.Category == Unchanged {
		return c.Category.Label()
	}
	return fmt.Sprintf("%s %d 名", c.Category.Label(), c.Magnitude)
}

// MarshalJSON includes the category name, style key and tooltip label.
func (c Classification) MarshalJSON() ([]byte, error) {
	type plain Classification
	return json.Marshal(struct {
		plain
		Category string `json:"category"`
		Style    string `json:"style"`
		Label    string `json:"label"`
	}{plain(c), c.Category.String(), c.Category.StyleKey(), c.Describe()})
}
