package workflow

import "github.com/tgienger/prevtech/internal/models"

// SelectionState is the phase of the template selection flow
type SelectionState int

const (
	StateClosed SelectionState = iota
	StateBrowsing
	StateBound
)

func (s SelectionState) String() string {
	switch s {
	case StateBrowsing:
		return "browsing"
	case StateBound:
		return "bound"
	default:
		return "closed"
	}
}

// Selection drives template browsing and binding for a task being created.
// Only the fields of the current state carry meaning.
type Selection struct {
	source   TemplateSource
	state    SelectionState
	category string // browsing
	bound    string // bound template id
	expanded bool
}

// NewSelection starts a closed flow over source
func NewSelection(source TemplateSource) *Selection {
	return &Selection{source: source}
}

func (s *Selection) State() SelectionState { return s.state }

// Category is the active filter while browsing
func (s *Selection) Category() string {
	if s.state != StateBrowsing {
		return ""
	}
	return s.category
}

// BoundTemplateID is the template bound to the task, if any
func (s *Selection) BoundTemplateID() string {
	if s.state != StateBound {
		return ""
	}
	return s.bound
}

// Open starts browsing every category. It has no effect unless closed.
func (s *Selection) Open() {
	if s.state != StateClosed {
		return
	}
	s.state = StateBrowsing
	s.category = AllCategories
}

// Cancel abandons browsing without touching the task
func (s *Selection) Cancel() {
	if s.state == StateBrowsing {
		s.reset()
	}
}

// FilterCategory switches the category filter while browsing
func (s *Selection) FilterCategory(category string) {
	if s.state == StateBrowsing {
		s.category = category
	}
}

// Categories lists the filterable categories
func (s *Selection) Categories() []string {
	return s.source.ListCategories()
}

// Templates lists the templates visible under the current filter
func (s *Selection) Templates() []models.WorkflowTemplate {
	if s.state != StateBrowsing {
		return nil
	}
	return s.source.ListTemplates(s.category)
}

// Select binds template id to task, replacing its subtasks. It is refused
// with ErrNotBrowsing unless the flow is browsing.
func (s *Selection) Select(task *models.Task, id string) error {
	if s.state != StateBrowsing {
		return ErrNotBrowsing
	}
	tmpl, ok := s.source.GetTemplate(id)
	if !ok {
		return ErrTemplateNotFound
	}
	task.AttachTemplate(tmpl)
	s.state = StateBound
	s.bound = tmpl.ID
	s.category = ""
	s.expanded = true
	return nil
}

// RemoveSubtask drops one subtask from the bound task. The flow closes
// when the task has no subtasks left.
func (s *Selection) RemoveSubtask(task *models.Task, id string) bool {
	if s.state != StateBound {
		return false
	}
	removed := task.RemoveSubtask(id)
	if !task.HasSubtasks() {
		s.reset()
	}
	return removed
}

// Clear removes the template binding and every subtask from task
func (s *Selection) Clear(task *models.Task) {
	if s.state != StateBound {
		return
	}
	task.DetachTemplate()
	s.reset()
}

// ToggleExpanded shows or hides the bound subtask list
func (s *Selection) ToggleExpanded() { s.expanded = !s.expanded }

func (s *Selection) Expanded() bool { return s.expanded }

func (s *Selection) reset() {
	s.state = StateClosed
	s.category = ""
	s.bound = ""
	s.expanded = false
}
