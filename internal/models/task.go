package models

import (
	"sort"
	"time"
)

// AttachTemplate replaces the task's subtasks with a fresh copy of the
// template's definitions, ordered by Order. Previous subtasks are discarded.
func (t *Task) AttachTemplate(tmpl WorkflowTemplate) {
	defs := append([]SubtaskDefinition(nil), tmpl.Subtasks...)
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].Order < defs[j].Order })

	t.Subtasks = make([]Subtask, len(defs))
	for i, d := range defs {
		t.Subtasks[i] = Subtask{
			SubtaskDefinition: d,
			DueDate:           ResolveDueDate(t.DueDate, d.DueOffset),
		}
	}
	t.TemplateID = tmpl.ID
}

// DetachTemplate drops every subtask and the template binding
func (t *Task) DetachTemplate() {
	t.Subtasks = nil
	t.TemplateID = ""
}

// RemoveSubtask removes the subtask with the given id and reports whether
// one was found. Removing the last subtask also clears the template binding.
func (t *Task) RemoveSubtask(id string) bool {
	for i, st := range t.Subtasks {
		if st.ID != id {
			continue
		}
		t.Subtasks = append(t.Subtasks[:i:i], t.Subtasks[i+1:]...)
		if len(t.Subtasks) == 0 {
			t.DetachTemplate()
		}
		return true
	}
	return false
}

// HasSubtasks reports whether the task carries any subtask
func (t *Task) HasSubtasks() bool {
	return len(t.Subtasks) > 0
}

// SetDueDate changes the due date and re-resolves subtask dates
func (t *Task) SetDueDate(d *time.Time) {
	t.DueDate = d
	t.ResolveSubtaskDates()
}

// ResolveSubtaskDates recomputes each subtask due date from the task's
func (t *Task) ResolveSubtaskDates() {
	for i := range t.Subtasks {
		t.Subtasks[i].DueDate = ResolveDueDate(t.DueDate, t.Subtasks[i].DueOffset)
	}
}

// Progress returns completed required subtasks over all subtasks as a
// percentage. ok is false when the task has no subtasks.
func (t *Task) Progress() (pct float64, ok bool) {
	if len(t.Subtasks) == 0 {
		return 0, false
	}
	done := 0
	for _, st := range t.Subtasks {
		if st.Required && st.Completed {
			done++
		}
	}
	return float64(done) / float64(len(t.Subtasks)) * 100, true
}

// PendingRequiredCount counts required subtasks not yet completed
func (t *Task) PendingRequiredCount() int {
	n := 0
	for _, st := range t.Subtasks {
		if st.Required && !st.Completed {
			n++
		}
	}
	return n
}

// CanComplete reports whether the task may move to done
func (t *Task) CanComplete() bool {
	return t.PendingRequiredCount() == 0
}

// Subtask returns the subtask with the given id
func (t *Task) Subtask(id string) (*Subtask, bool) {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i], true
		}
	}
	return nil, false
}

// CompleteSubtask marks a subtask as completed or reopens it. Reopening a
// required subtask of a done task moves the task back to in-progress.
func (t *Task) CompleteSubtask(id string, completed bool) error {
	st, ok := t.Subtask(id)
	if !ok {
		return ErrSubtaskNotFound
	}
	st.Completed = completed
	if t.Status == StatusDone && !t.CanComplete() {
		t.Status = StatusInProgress
	}
	return nil
}

// SetStatus moves the task to s. Done is refused while required subtasks
// are pending.
func (t *Task) SetStatus(s Status) error {
	if !s.Valid() {
		return ErrInvalidStatus
	}
	if s == StatusDone && !t.CanComplete() {
		return ErrRequiredSubtasksPending
	}
	t.Status = s
	return nil
}

// HasTag reports whether the task carries tag
func (t *Task) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// ToggleTag adds tag when absent and removes it otherwise
func (t *Task) ToggleTag(tag string) {
	for i, tg := range t.Tags {
		if tg == tag {
			t.Tags = append(t.Tags[:i:i], t.Tags[i+1:]...)
			return
		}
	}
	t.Tags = append(t.Tags, tag)
}
