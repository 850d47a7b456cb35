package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidStatus           = errors.New("invalid task status")
	ErrRequiredSubtasksPending = errors.New("required subtasks are still pending")
	ErrSubtaskNotFound         = errors.New("subtask not found")
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every status in board order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) String() string { return string(s) }

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Next returns the following status, wrapping from done back to todo
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

// Label is the human readable form used in the UI
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "In progress"
	case StatusDone:
		return "Done"
	default:
		return "To do"
	}
}

// ParseStatus converts a string into a Status
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Priority ranks tasks for sorting and display
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) String() string { return string(p) }

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority converts a string into a Priority
func ParsePriority(v string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(v)))
	return p, p.Valid()
}

// FixedTags is the closed vocabulary of labels a task may carry
var FixedTags = []string{
	"Urgente",
	"Prazo",
	"Cliente",
	"INSS",
	"Contrato",
	"Audiência",
	"Documentação",
	"Financeiro",
}

// IsFixedTag reports whether tag belongs to FixedTags
func IsFixedTag(tag string) bool {
	for _, t := range FixedTags {
		if t == tag {
			return true
		}
	}
	return false
}

// SubtaskDefinition is one step of a workflow template
type SubtaskDefinition struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Assignee    string `yaml:"assignee" json:"assignee"`
	DueOffset   int    `yaml:"due_offset" json:"dueOffset"` // days before the parent due date
	Required    bool   `yaml:"required" json:"isRequired"`
	Order       int    `yaml:"order" json:"order"`
}

// WorkflowTemplate is a named, categorized list of subtask definitions
type WorkflowTemplate struct {
	ID          string              `yaml:"id" json:"id"`
	Name        string              `yaml:"name" json:"name"`
	Description string              `yaml:"description" json:"description"`
	Category    string              `yaml:"category" json:"category"`
	Subtasks    []SubtaskDefinition `yaml:"subtasks" json:"subtasks"`
}

// Clone returns a copy that shares no slices with t
func (t WorkflowTemplate) Clone() WorkflowTemplate {
	c := t
	c.Subtasks = append([]SubtaskDefinition(nil), t.Subtasks...)
	return c
}

// Subtask is a template step instantiated for one task
type Subtask struct {
	SubtaskDefinition
	DueDate   *time.Time
	Completed bool
}

// Task represents a single unit of work
type Task struct {
	ID                   string
	Title                string
	Description          string
	Status               Status
	Priority             Priority
	Assignee             string
	DueDate              *time.Time
	Tags                 []string
	Subtasks             []Subtask
	TemplateID           string // weak reference into the catalog
	LinkedPublicationRef string
	LinkedProcessRef     string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PermissionChange records one toggled cell of the permission matrix
type PermissionChange struct {
	ID         int64
	Profile    string
	Resource   string
	Permission string
	OldValue   bool
	NewValue   bool
	ChangedAt  time.Time
}
