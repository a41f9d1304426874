// Package search matches student names against a typed query.
package search

import (
	"fmt"
	"strings"

	"examdash/internal/dataset"
)

// MaxResults caps every match list.
const MaxResults = 10

// Result is one match with its display string.
type Result struct {
	Student dataset.Student `json:"-"`
	ID      string          `json:"student_id"`
	Name    string          `json:"name"`
	Class   string          `json:"class"`
	Display string          `json:"display"`
}

// Matcher holds the roster in its original order.
type Matcher struct {
	roster []dataset.Student
}

// New builds a matcher over roster. The roster is not copied; it must not be
// mutated afterwards.
func New(roster []dataset.Student) *Matcher {
	return &Matcher{roster: roster}
}

// Len is the roster size.
func (m *Matcher) Len() int {
	return len(m.roster)
}

// Match returns up to MaxResults students whose name contains the trimmed
// query, case-sensitively, in roster order. A blank query matches nothing.
func (m *Matcher) Match(query string) []Result {
	query = strings.TrimSpace(query)
	results := []Result{}
	if query == "" {
		return results
	}

	for _, s := range m.roster {
		if !strings.Contains(s.Name, query) {
			continue
		}
		results = append(results, NewResult(s))
		if len(results) == MaxResults {
			break
		}
	}
	return results
}

// Match is a one-shot convenience over New(roster).Match(query).
func Match(query string, roster []dataset.Student) []Result {
	return New(roster).Match(query)
}

// NewResult wraps a student with its display string.
func NewResult(s dataset.Student) Result {
	return Result{
		Student: s,
		ID:      string(s.StudentID),
		Name:    s.Name,
		Class:   string(s.ClassLabel),
		Display: Display(s),
	}
}

// Display formats a student as "name (class) - id: student-id".
func Display(s dataset.Student) string {
	return fmt.Sprintf("%s (%s) - id: %s", s.Name, s.ClassLabel, s.StudentID)
}
