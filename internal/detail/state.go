package detail

// State is the detail view's visibility. Once shown it stays shown; a new
// selection replaces the current student.
type State struct {
	shown     bool
	studentID string
}

// Shown reports whether a student is on display.
func (s State) Shown() bool {
	return s.shown
}

// StudentID is the displayed student, or "" while hidden.
func (s State) StudentID() string {
	return s.studentID
}

// Select moves to Shown(id). changed is false when id is already shown.
func (s State) Select(id string) (next State, changed bool) {
	if s.shown && s.studentID == id {
		return s, false
	}
	return State{shown: true, studentID: id}, true
}

func (s State) String() string {
	if !s.shown {
		return "Hidden"
	}
	return "Shown(" + s.studentID + ")"
}
