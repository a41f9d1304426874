package dashboard

import (
	"errors"
	"testing"

	"examdash/internal/dataset"
	"examdash/internal/detail"
	"examdash/internal/search"
)

type recorder struct {
	overviews   []Overview
	matches     [][]search.Result
	details     []detail.Projection
	resizeCalls int
}

func (r *recorder) RenderOverview(o Overview)        { r.overviews = append(r.overviews, o) }
func (r *recorder) RenderMatches(m []search.Result)  { r.matches = append(r.matches, m) }
func (r *recorder) RenderDetail(p detail.Projection) { r.details = append(r.details, p) }
func (r *recorder) Resize(width, height int)         { r.resizeCalls++ }

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		GlobalStats: dataset.GlobalStats{
			TotalStudents: 3,
			ScoreDistribution: dataset.ScoreDistribution{
				Monthly: []float64{420, 510, 330},
			},
		},
		SubjectStats: []dataset.SubjectStat{{Subject: "Math", AvgMonthly: 80, AvgMidterm: 85}},
		TopImprovers: []dataset.Improver{{Name: "Alice", ClassLabel: "1", RankChange: 5}},
		Students: []dataset.Student{
			{StudentID: "1", Name: "Alice", ClassLabel: "1", TotalRankMonthly: 10, TotalRankMidterm: 5, RankChange: 5,
				Subjects: []dataset.SubjectRank{{Name: "Math", RankMonthly: 8, RankMidterm: 8}}},
			{StudentID: "2", Name: "Alicia", ClassLabel: "2", TotalRankMonthly: 3, TotalRankMidterm: 9, RankChange: -6,
				Subjects: []dataset.SubjectRank{{Name: "Math", RankMonthly: 2, RankMidterm: 4, Change: -2}}},
			{StudentID: "3", Name: "Bob", ClassLabel: "1", TotalRankMonthly: 7, TotalRankMidterm: 7,
				Subjects: []dataset.SubjectRank{{Name: "Math", RankMonthly: 5, RankMidterm: 3, Change: 2}}},
		},
	}
}

func TestOnLoadRendersOverview(t *testing.T) {
	r := &recorder{}
	c := New(r, nil)

	c.OnLoad(testDataset())

	if !c.Loaded() {
		t.Fatal("Expected controller to be loaded")
	}
	if len(r.overviews) != 1 {
		t.Fatalf("Expected one overview render, got %d", len(r.overviews))
	}

	o := r.overviews[0]
	if o.Distribution.Monthly[1] != 1 {
		t.Errorf("Expected one monthly score in 300-350, got %v", o.Distribution.Monthly)
	}
	if o.Top.Empty || !o.Bottom.Empty {
		t.Errorf("Expected populated top and empty bottom, got top=%v bottom=%v", o.Top.Empty, o.Bottom.Empty)
	}
	if o.Summary.TotalStudents != 3 {
		t.Errorf("Expected 3 students in summary, got %d", o.Summary.TotalStudents)
	}
}

func TestOnInputAndSelect(t *testing.T) {
	r := &recorder{}
	c := New(r, nil)
	c.OnLoad(testDataset())

	matches := c.OnInput("Ali")
	if len(matches) != 2 || matches[0].Name != "Alice" || matches[1].Name != "Alicia" {
		t.Fatalf("Unexpected matches: %+v", matches)
	}

	p, err := c.OnSelect(matches[1].ID)
	if err != nil {
		t.Fatalf("OnSelect failed: %v", err)
	}
	if p.Name != "Alicia" || p.Len() != 2 {
		t.Errorf("Unexpected projection: %+v", p)
	}
	if len(c.Matches()) != 0 {
		t.Error("Expected selection to clear the match list")
	}
	if got := c.State().String(); got != "Shown(2)" {
		t.Errorf("Expected Shown(2), got %s", got)
	}

	if _, err := c.OnSelect("2"); err != nil {
		t.Fatalf("Reselect failed: %v", err)
	}
	if len(r.details) != 2 {
		t.Errorf("Expected reselect to re-render, got %d renders", len(r.details))
	}

	p, err = c.OnSelect("3")
	if err != nil {
		t.Fatalf("OnSelect failed: %v", err)
	}
	current, shown := c.Detail()
	if !shown || current.StudentID != "3" || p.StudentID != "3" {
		t.Errorf("Expected detail replaced by student 3, got %+v", current)
	}
}

func TestOnSelectUnknown(t *testing.T) {
	c := New(nil, nil)

	if _, err := c.OnSelect("1"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded before load, got %v", err)
	}

	c.OnLoad(testDataset())
	if _, err := c.OnSelect("404"); !errors.Is(err, ErrUnknownStudent) {
		t.Errorf("Expected ErrUnknownStudent, got %v", err)
	}
	if c.State().Shown() {
		t.Error("Expected unknown selection to leave the view hidden")
	}
}

func TestOnResizeReusesOutputs(t *testing.T) {
	r := &recorder{}
	c := New(r, nil)

	c.OnResize(80, 24)
	if len(r.overviews) != 0 || len(r.details) != 0 {
		t.Error("Expected nothing rendered before load")
	}

	c.OnLoad(testDataset())
	c.OnSelect("1")
	c.OnResize(120, 40)

	if r.resizeCalls != 2 {
		t.Errorf("Expected 2 resize calls, got %d", r.resizeCalls)
	}
	if len(r.overviews) != 2 || len(r.details) != 2 {
		t.Fatalf("Expected overview and detail re-rendered, got %d/%d", len(r.overviews), len(r.details))
	}
	if &r.details[0].Labels[0] != &r.details[1].Labels[0] {
		t.Error("Expected resize to reuse the cached projection")
	}
	if w, h := c.Size(); w != 120 || h != 40 {
		t.Errorf("Expected size 120x40, got %dx%d", w, h)
	}
}

func TestLoadFailureIsTerminal(t *testing.T) {
	r := &recorder{}
	c := New(r, nil)

	c.OnLoadError(errors.New("connection refused"))
	c.OnLoad(testDataset())

	if c.Loaded() {
		t.Error("Expected load after failure to be ignored")
	}
	if c.Failed() == nil {
		t.Error("Expected failure to be recorded")
	}
	if got := c.OnInput("Ali"); len(got) != 0 {
		t.Errorf("Expected no matches after failure, got %v", got)
	}
	if len(r.overviews) != 0 {
		t.Error("Expected nothing rendered after failure")
	}
}
