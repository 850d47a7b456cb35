package permissions

import "github.com/tgienger/prevtech/internal/models"

// Session tracks an edit of the grid between entering edit mode and the
// confirmed save
type Session struct {
	current  *Matrix
	snapshot *Matrix
}

// NewSession wraps m, which the session mutates in place
func NewSession(m *Matrix) *Session {
	return &Session{current: m}
}

func (s *Session) Matrix() *Matrix { return s.current }

func (s *Session) Editing() bool { return s.snapshot != nil }

// Begin enters edit mode, remembering the grid as it is now
func (s *Session) Begin() {
	if s.snapshot == nil {
		s.snapshot = s.current.Clone()
	}
}

// Toggle flips a cell while editing
func (s *Session) Toggle(resource, profile string, action Action) bool {
	if s.snapshot == nil {
		return false
	}
	return s.current.Toggle(resource, profile, action)
}

// Changes is the pending diff against the grid at Begin
func (s *Session) Changes() []models.PermissionChange {
	if s.snapshot == nil {
		return nil
	}
	return Diff(s.snapshot, s.current)
}

// Confirm leaves edit mode keeping the edits and returns what changed
func (s *Session) Confirm() []models.PermissionChange {
	changes := s.Changes()
	s.snapshot = nil
	return changes
}

// Cancel leaves edit mode and restores the grid
func (s *Session) Cancel() {
	if s.snapshot == nil {
		return
	}
	s.current.cells = s.snapshot.cells
	s.snapshot = nil
}
