// Package dataset holds the typed, default-filled view over the exam
// comparison document produced by the import pipeline.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dataset is the full snapshot loaded once at startup. It is never mutated
// after Normalize returns.
type Dataset struct {
	GlobalStats     GlobalStats   `json:"global_stats"`
	SubjectStats    []SubjectStat `json:"subject_stats"`
	ClassStats      []ClassStat   `json:"class_stats"`
	TopImprovers    []Improver    `json:"top_improvers"`
	BottomImprovers []Improver    `json:"bottom_improvers"`
	Students        []Student     `json:"students"`
}

// GlobalStats summarizes every student across both sittings.
type GlobalStats struct {
	TotalStudents     int               `json:"total_students"`
	AvgScoreMonthly   float64           `json:"avg_score_monthly"`
	AvgScoreMidterm   float64           `json:"avg_score_midterm"`
	ScoreDistribution ScoreDistribution `json:"score_distribution"`
}

// ScoreDistribution carries the raw total scores of each sitting.
type ScoreDistribution struct {
	Monthly []float64 `json:"monthly"`
	Midterm []float64 `json:"midterm"`
}

// SubjectStat is one subject's average score per sitting. Slice order is
// display order.
type SubjectStat struct {
	Subject    string  `json:"Subject"`
	AvgMonthly float64 `json:"Avg_Score_Monthly"`
	AvgMidterm float64 `json:"Avg_Score_Midterm"`
	Delta      float64 `json:"Delta"`
}

// ClassStat is one class's averages, keyed by its midterm class label.
type ClassStat struct {
	ClassLabel         Label   `json:"Class_Midterm"`
	AvgMonthly         float64 `json:"Avg_Score_Monthly"`
	AvgMidterm         float64 `json:"Avg_Score_Midterm"`
	AvgScoreChange     float64 `json:"Avg_Score_Change"`
	AvgRankImprovement float64 `json:"Avg_Rank_Improvement"`
}

// Improver is a leaderboard row. RankChange is monthly rank minus midterm
// rank, so positive values are improvements.
type Improver struct {
	Name       string `json:"Name_Midterm"`
	ClassLabel Label  `json:"Class_Midterm"`
	RankChange int    `json:"Improvement_School_Rank"`
}

// Student is one student's comparison record.
type Student struct {
	StudentID         Label         `json:"student_id"`
	Name              string        `json:"name"`
	ClassLabel        Label         `json:"class"`
	TotalScoreMonthly float64       `json:"total_score_monthly"`
	TotalScoreMidterm float64       `json:"total_score_midterm"`
	TotalRankMonthly  int           `json:"total_rank_monthly"`
	TotalRankMidterm  int           `json:"total_rank_midterm"`
	RankChange        int           `json:"rank_change"`
	Subjects          []SubjectRank `json:"subjects"`
}

// SubjectRank is a student's rank in one subject for both sittings. A rank
// of 0 means the student did not sit that paper.
type SubjectRank struct {
	Name        string `json:"name"`
	RankMonthly int    `json:"rank_monthly"`
	RankMidterm int    `json:"rank_midterm"`
	Change      int    `json:"change"`
}

// RankConsistent reports whether RankChange agrees with the two total ranks.
func (s Student) RankConsistent() bool {
	if s.TotalRankMonthly == 0 || s.TotalRankMidterm == 0 {
		return s.RankChange == 0
	}
	return s.RankChange == s.TotalRankMonthly-s.TotalRankMidterm
}

// SubjectChange applies the export rule for a subject's rank change: zero
// whenever either sitting is missing.
func SubjectChange(monthly, midterm int) int {
	if monthly <= 0 || midterm <= 0 {
		return 0
	}
	return monthly - midterm
}

// Normalize replaces every absent sequence with an empty one so that
// downstream code can assume total structure.
func (d *Dataset) Normalize() *Dataset {
	if d.GlobalStats.ScoreDistribution.Monthly == nil {
		d.GlobalStats.ScoreDistribution.Monthly = []float64{}
	}
	if d.GlobalStats.ScoreDistribution.Midterm == nil {
		d.GlobalStats.ScoreDistribution.Midterm = []float64{}
	}
	if d.SubjectStats == nil {
		d.SubjectStats = []SubjectStat{}
	}
	if d.ClassStats == nil {
		d.ClassStats = []ClassStat{}
	}
	if d.TopImprovers == nil {
		d.TopImprovers = []Improver{}
	}
	if d.BottomImprovers == nil {
		d.BottomImprovers = []Improver{}
	}
	if d.Students == nil {
		d.Students = []Student{}
	}
	for i := range d.Students {
		if d.Students[i].Subjects == nil {
			d.Students[i].Subjects = []SubjectRank{}
		}
	}
	return d
}

// Student looks up a student by ID.
func (d *Dataset) Student(id string) (Student, bool) {
	for _, s := range d.Students {
		if string(s.StudentID) == id {
			return s, true
		}
	}
	return Student{}, false
}

// SubjectNames returns subject names in display order.
func (d *Dataset) SubjectNames() []string {
	names := make([]string, len(d.SubjectStats))
	for i, s := range d.SubjectStats {
		names[i] = s.Subject
	}
	return names
}

// Label is an identifier that the exporter may write either as a JSON
// string or as a number (class 3, student id 2024001).
type Label string

func (l Label) String() string {
	return string(l)
}

// ParseLabel trims a raw cell value, dropping a spreadsheet's trailing ".0".
func ParseLabel(raw string) Label {
	return Label(strings.TrimSuffix(strings.TrimSpace(raw), ".0"))
}

func (l *Label) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = Label(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("label %s: %w", b, err)
	}
	*l = Label(strings.TrimSuffix(n.String(), ".0"))
	return nil
}

// flexInt accepts integers written as floats ("12.0"), strings or null.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		var s string
		if serr := json.Unmarshal(b, &s); serr != nil {
			return fmt.Errorf("integer %s: %w", b, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("integer %q: %w", s, err)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = flexInt(math.Round(f))
	return nil
}

func (s *Student) UnmarshalJSON(b []byte) error {
	var doc struct {
		StudentID         Label         `json:"student_id"`
		Name              string        `json:"name"`
		ClassLabel        Label         `json:"class"`
		TotalScoreMonthly float64       `json:"total_score_monthly"`
		TotalScoreMidterm float64       `json:"total_score_midterm"`
		TotalRankMonthly  flexInt       `json:"total_rank_monthly"`
		TotalRankMidterm  flexInt       `json:"total_rank_midterm"`
		RankChange        flexInt       `json:"rank_change"`
		Subjects          []SubjectRank `json:"subjects"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*s = Student{
		StudentID:         doc.StudentID,
		Name:              doc.Name,
		ClassLabel:        doc.ClassLabel,
		TotalScoreMonthly: doc.TotalScoreMonthly,
		TotalScoreMidterm: doc.TotalScoreMidterm,
		TotalRankMonthly:  int(doc.TotalRankMonthly),
		TotalRankMidterm:  int(doc.TotalRankMidterm),
		RankChange:        int(doc.RankChange),
		Subjects:          doc.Subjects,
	}
	return nil
}

func (r *SubjectRank) UnmarshalJSON(b []byte) error {
	var doc struct {
		Name        string  `json:"name"`
		RankMonthly flexInt `json:"rank_monthly"`
		RankMidterm flexInt `json:"rank_midterm"`
		Change      flexInt `json:"change"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*r = SubjectRank{
		Name:        doc.Name,
		RankMonthly: int(doc.RankMonthly),
		RankMidterm: int(doc.RankMidterm),
		Change:      int(doc.Change),
	}
	return nil
}

func (m *Improver) UnmarshalJSON(b []byte) error {
	var doc struct {
		Name       string  `json:"Name_Midterm"`
		ClassLabel Label   `json:"Class_Midterm"`
		RankChange flexInt `json:"Improvement_School_Rank"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*m = Improver{
		Name:       doc.Name,
		ClassLabel: doc.ClassLabel,
		RankChange: int(doc.RankChange),
	}
	return nil
}
