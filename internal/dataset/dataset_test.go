package dataset

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `{
  "global_stats": {
    "total_students": 2,
    "avg_score_monthly": 480.5,
    "avg_score_midterm": 501.0,
    "score_distribution": {"monthly": [470, 491], "midterm": [499.5, 502.5]}
  },
  "subject_stats": [
    {"Subject": "语文", "Avg_Score_Monthly": 88.2, "Avg_Score_Midterm": 90.1, "Delta": 1.9}
  ],
  "class_stats": [
    {"Class_Midterm": 1, "Avg_Score_Monthly": 470.0, "Avg_Score_Midterm": 499.5, "Avg_Score_Change": 29.5, "Avg_Rank_Improvement": 12.0}
  ],
  "top_improvers": [
    {"Name_Midterm": "张三", "Class_Midterm": 1.0, "Improvement_School_Rank": 12.0}
  ],
  "students": [
    {
      "name": "张三",
      "student_id": 2024001,
      "class": 1,
      "total_score_monthly": 470,
      "total_score_midterm": 499.5,
      "total_rank_monthly": 40.0,
      "total_rank_midterm": 28.0,
      "rank_change": 12.0,
      "subjects": [{"name": "语文", "rank_monthly": 10, "rank_midterm": 8, "change": 2}]
    },
    {
      "name": "李四",
      "student_id": "2024002",
      "class": "2",
      "total_score_monthly": 491,
      "total_score_midterm": 502.5,
      "total_rank_monthly": 30,
      "total_rank_midterm": null,
      "rank_change": 0
    }
  ]
}`

func TestDecodeTolerantNumbers(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(ds.Students) != 2 {
		t.Fatalf("Expected 2 students, got %d", len(ds.Students))
	}

	first := ds.Students[0]
	if first.StudentID != "2024001" {
		t.Errorf("Expected numeric id to decode as 2024001, got %q", first.StudentID)
	}
	if first.ClassLabel != "1" {
		t.Errorf("Expected class label 1, got %q", first.ClassLabel)
	}
	if first.TotalRankMonthly != 40 || first.TotalRankMidterm != 28 || first.RankChange != 12 {
		t.Errorf("Unexpected ranks: %+v", first)
	}
	if !first.RankConsistent() {
		t.Error("Expected first student to be rank consistent")
	}

	second := ds.Students[1]
	if second.TotalRankMidterm != 0 {
		t.Errorf("Expected null rank to decode as 0, got %d", second.TotalRankMidterm)
	}
	if second.Subjects == nil {
		t.Error("Expected absent subjects to be default-filled")
	}

	if ds.TopImprovers[0].ClassLabel != "1" || ds.TopImprovers[0].RankChange != 12 {
		t.Errorf("Unexpected improver: %+v", ds.TopImprovers[0])
	}
}

func TestNormalizeFillsAbsentSequences(t *testing.T) {
	ds, err := Decode(strings.NewReader(`{"students": [{"name": "A", "student_id": "1"}]}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if ds.GlobalStats.ScoreDistribution.Monthly == nil || ds.GlobalStats.ScoreDistribution.Midterm == nil {
		t.Error("Expected score distributions to be non-nil")
	}
	if ds.SubjectStats == nil || ds.ClassStats == nil {
		t.Error("Expected subject and class stats to be non-nil")
	}
	if ds.TopImprovers == nil || ds.BottomImprovers == nil {
		t.Error("Expected leaderboards to be non-nil")
	}
	if ds.Students[0].Subjects == nil {
		t.Error("Expected student subjects to be non-nil")
	}
}

func TestStudentLookup(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	s, ok := ds.Student("2024002")
	if !ok {
		t.Fatal("Expected to find student 2024002")
	}
	if s.Name != "李四" {
		t.Errorf("Expected 李四, got %s", s.Name)
	}

	if _, ok := ds.Student("missing"); ok {
		t.Error("Expected lookup of unknown id to fail")
	}

	names := ds.SubjectNames()
	if len(names) != 1 || names[0] != "语文" {
		t.Errorf("Unexpected subject names: %v", names)
	}
}

func TestSubjectChange(t *testing.T) {
	testCases := []struct {
		name             string
		monthly, midterm int
		expected         int
	}{
		{"improved", 10, 4, 6},
		{"declined", 4, 10, -6},
		{"missing monthly", 0, 10, 0},
		{"missing midterm", 7, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SubjectChange(tc.monthly, tc.midterm); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	testCases := map[string]Label{
		"3":       "3",
		" 3.0 ":   "3",
		"2024001": "2024001",
		"A1":      "A1",
		"":        "",
	}
	for raw, expected := range testCases {
		if got := ParseLabel(raw); got != expected {
			t.Errorf("ParseLabel(%q): expected %q, got %q", raw, expected, got)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	ds, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ds.GlobalStats.TotalStudents != 2 {
		t.Errorf("Expected 2 total students, got %d", ds.GlobalStats.TotalStudents)
	}
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	ds, err := Load(context.Background(), srv.URL+"/data.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(ds.SubjectStats) != 1 {
		t.Errorf("Expected 1 subject, got %d", len(ds.SubjectStats))
	}

	_, err = Load(context.Background(), srv.URL+"/missing.json")
	if !errors.Is(err, ErrLoad) {
		t.Errorf("Expected ErrLoad for 404, got %v", err)
	}
}

func TestLoadFailures(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(badPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	testCases := []struct {
		name   string
		source string
	}{
		{"empty source", ""},
		{"missing file", filepath.Join(t.TempDir(), "nope.json")},
		{"malformed document", badPath},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := Load(context.Background(), tc.source)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !errors.Is(err, ErrLoad) {
				t.Errorf("Expected error to wrap ErrLoad, got %v", err)
			}
			if ds != nil {
				t.Error("Expected nil dataset on failure")
			}
		})
	}
}

func TestWriteKeepsCJK(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, ds); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "张三") {
		t.Error("Expected CJK names to be written unescaped")
	}

	again, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode of written document failed: %v", err)
	}
	if again.Students[0].RankChange != 12 {
		t.Errorf("Expected rank change 12 after rewrite, got %d", again.Students[0].RankChange)
	}
}
