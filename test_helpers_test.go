package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"examdash/internal/dataset"
	"examdash/internal/detail"
)

const fixtureDoc = `{
  "global_stats": {
    "total_students": 3,
    "avg_score_monthly": 480,
    "avg_score_midterm": 500,
    "score_distribution": {"monthly": [470, 480, 490], "midterm": [510, 460, 530]}
  },
  "subject_stats": [
    {"Subject": "语文", "Avg_Score_Monthly": 90, "Avg_Score_Midterm": 92, "Delta": 2},
    {"Subject": "数学", "Avg_Score_Monthly": 95, "Avg_Score_Midterm": 93, "Delta": -2}
  ],
  "class_stats": [
    {"Class_Midterm": 1, "Avg_Score_Monthly": 480, "Avg_Score_Midterm": 520, "Avg_Score_Change": 40, "Avg_Rank_Improvement": 9},
    {"Class_Midterm": 2, "Avg_Score_Monthly": 480, "Avg_Score_Midterm": 460, "Avg_Score_Change": -20, "Avg_Rank_Improvement": -8}
  ],
  "top_improvers": [
    {"Name_Midterm": "张三", "Class_Midterm": 1, "Improvement_School_Rank": 12},
    {"Name_Midterm": "张小明", "Class_Midterm": 1, "Improvement_School_Rank": 6}
  ],
  "bottom_improvers": [
    {"Name_Midterm": "李四", "Class_Midterm": 2, "Improvement_School_Rank": -8}
  ],
  "students": [
    {
      "name": "张三", "student_id": "2024001", "class": "1",
      "total_score_monthly": 470, "total_score_midterm": 510,
      "total_rank_monthly": 40, "total_rank_midterm": 28, "rank_change": 12,
      "subjects": [
        {"name": "语文", "rank_monthly": 10, "rank_midterm": 8, "change": 2},
        {"name": "数学", "rank_monthly": 5, "rank_midterm": 9, "change": -4}
      ]
    },
    {
      "name": "李四", "student_id": "2024002", "class": "2",
      "total_score_monthly": 480, "total_score_midterm": 460,
      "total_rank_monthly": 20, "total_rank_midterm": 28, "rank_change": -8,
      "subjects": [
        {"name": "语文", "rank_monthly": 3, "rank_midterm": 3, "change": 0},
        {"name": "数学", "rank_monthly": 7, "rank_midterm": 12, "change": -5}
      ]
    },
    {
      "name": "张小明", "student_id": "2024003", "class": "1",
      "total_score_monthly": 490, "total_score_midterm": 530,
      "total_rank_monthly": 16, "total_rank_midterm": 10, "rank_change": 6,
      "subjects": [
        {"name": "语文", "rank_monthly": 6, "rank_midterm": 4, "change": 2},
        {"name": "数学", "rank_monthly": 8, "rank_midterm": 6, "change": 2}
      ]
    }
  ]
}`

// fixtureDataset decodes the shared three-student document.
func fixtureDataset(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.Decode(strings.NewReader(fixtureDoc))
	if err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	return ds
}

// stubNarrator returns a canned narrative or error and records its input.
type stubNarrator struct {
	text  string
	err   error
	calls []string
}

func (s *stubNarrator) Narrate(ctx context.Context, p detail.Projection) (string, error) {
	s.calls = append(s.calls, p.StudentID)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

var errStubNarrator = errors.New("upstream unavailable")
