// Package detail projects a single student's ranks into the comparison
// series shown in the drill-down view.
package detail

import (
	"fmt"

	"examdash/internal/dataset"
	"examdash/internal/rankdelta"
)

// OverallLabel is the category label of the synthetic total-rank entry.
const OverallLabel = "总排名"

// Sitting display names.
const (
	MonthlyName = "第一次月考"
	MidtermName = "期中考试"
)

// Projection holds parallel sequences of length 1+len(subjects). Index 0 is
// the overall rank.
type Projection struct {
	StudentID       string                     `json:"student_id"`
	Name            string                     `json:"name"`
	ClassLabel      string                     `json:"class"`
	Labels          []string                   `json:"labels"`
	Monthly         []int                      `json:"monthly"`
	Midterm         []int                      `json:"midterm"`
	Classifications []rankdelta.Classification `json:"classifications"`
}

// Project builds the comparison series for s.
func Project(s dataset.Student) Projection {
	n := len(s.Subjects) + 1
	p := Projection{
		StudentID:       string(s.StudentID),
		Name:            s.Name,
		ClassLabel:      string(s.ClassLabel),
		Labels:          make([]string, 0, n),
		Monthly:         make([]int, 0, n),
		Midterm:         make([]int, 0, n),
		Classifications: make([]rankdelta.Classification, 0, n),
	}

	p.add(OverallLabel, s.TotalRankMonthly, s.TotalRankMidterm, s.RankChange)
	for _, sub := range s.Subjects {
		p.add(sub.Name, sub.RankMonthly, sub.RankMidterm, sub.Change)
	}
	return p
}

func (p *Projection) add(label string, monthly, midterm, change int) {
	p.Labels = append(p.Labels, label)
	p.Monthly = append(p.Monthly, monthly)
	p.Midterm = append(p.Midterm, midterm)
	p.Classifications = append(p.Classifications, rankdelta.Classify(change))
}

// Len is the number of data points.
func (p Projection) Len() int {
	return len(p.Labels)
}

// Tooltip describes data point i. Out-of-range indexes yield "".
func (p Projection) Tooltip(i int) string {
	if i < 0 || i >= p.Len() {
		return ""
	}
	return fmt.Sprintf("%s\n%s: %d\n%s: %d\n%s",
		p.Labels[i],
		MonthlyName, p.Monthly[i],
		MidtermName, p.Midterm[i],
		p.Classifications[i].Describe(),
	)
}

// Tally counts data points per category.
type Tally struct {
	Improved  int `json:"improved"`
	Declined  int `json:"declined"`
	Unchanged int `json:"unchanged"`
}

// Counts tallies the subject entries, skipping the overall rank.
func (p Projection) Counts() Tally {
	var t Tally
	for _, c := range p.Classifications[min(1, len(p.Classifications)):] {
		switch c.Category {
		case rankdelta.Improved:
			t.Improved++
		case rankdelta.Declined:
			t.Declined++
		default:
			t.Unchanged++
		}
	}
	return t
}
