// Package tasks is the application service between the task screens and
// the store: it validates requests, builds Task aggregates and persists them.
package tasks

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tgienger/prevtech/internal/db"
	"github.com/tgienger/prevtech/internal/models"
	"github.com/tgienger/prevtech/internal/workflow"
)

// Store persists tasks. *db.DB implements it.
type Store interface {
	CreateTask(t *models.Task) error
	GetTask(id string) (*models.Task, error)
	ListTasks(f db.TaskFilter) ([]models.Task, error)
	UpdateTask(t *models.Task) error
	SetTaskStatus(id string, status models.Status) error
	SetSubtaskCompleted(taskID, subtaskID string, completed bool) error
	DeleteTask(id string) error
	TaskCount() (map[models.Status]int, error)
	TagCounts() (map[string]int, error)
}

var _ Store = (*db.DB)(nil)

type Service struct {
	store    Store
	catalog  workflow.TemplateSource
	validate *validator.Validate
	logger   *slog.Logger
	newID    func() string
}

func NewService(store Store, catalog workflow.TemplateSource, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		validate: NewValidator(),
		logger:   logger,
		newID:    uuid.NewString,
	}
}

func (s *Service) Catalog() workflow.TemplateSource { return s.catalog }

// Create validates req, seeds subtasks from the requested template and
// stores the new task
func (s *Service) Create(req CreateTaskRequest) (*models.Task, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &Error{Op: "create", Err: invalid(err)}
	}

	due, err := models.ParseDate(req.DueDate)
	if err != nil {
		return nil, &Error{Op: "create", Err: invalid(err)}
	}
	priority, ok := models.ParsePriority(req.Priority)
	if !ok {
		return nil, &Error{Op: "create", Err: invalid(fmt.Errorf("priority %q", req.Priority))}
	}

	t := &models.Task{
		ID:                   s.newID(),
		Title:                req.Title,
		Description:          req.Description,
		Status:               models.StatusTodo,
		Priority:             priority,
		Assignee:             req.Assignee,
		DueDate:              due,
		Tags:                 append([]string(nil), req.Tags...),
		LinkedPublicationRef: req.LinkedPublicationRef,
		LinkedProcessRef:     req.LinkedProcessRef,
	}

	if req.TemplateID != "" {
		tmpl, ok := s.catalog.GetTemplate(req.TemplateID)
		if !ok {
			return nil, &Error{Op: "create", Err: workflow.ErrTemplateNotFound}
		}
		t.AttachTemplate(tmpl)
		for _, id := range req.RemovedSubtasks {
			t.RemoveSubtask(id)
		}
	}

	if err := s.store.CreateTask(t); err != nil {
		return nil, &Error{Op: "create", TaskID: t.ID, Err: err}
	}

	s.logger.Info("task created",
		"id", t.ID,
		"template", t.TemplateID,
		"subtasks", len(t.Subtasks),
		"due", models.FormatDate(t.DueDate),
	)
	return t, nil
}

// Update edits the mutable fields of a task. Subtask dates follow the new
// due date.
func (s *Service) Update(id string, req UpdateTaskRequest) (*models.Task, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &Error{Op: "update", TaskID: id, Err: invalid(err)}
	}
	due, err := models.ParseDate(req.DueDate)
	if err != nil {
		return nil, &Error{Op: "update", TaskID: id, Err: invalid(err)}
	}
	priority, ok := models.ParsePriority(req.Priority)
	if !ok {
		return nil, &Error{Op: "update", TaskID: id, Err: invalid(fmt.Errorf("priority %q", req.Priority))}
	}

	t, err := s.store.GetTask(id)
	if err != nil {
		return nil, &Error{Op: "update", TaskID: id, Err: err}
	}

	t.Title = req.Title
	t.Description = req.Description
	t.Priority = priority
	t.Assignee = req.Assignee
	t.Tags = append([]string(nil), req.Tags...)
	t.SetDueDate(due)

	if err := s.store.UpdateTask(t); err != nil {
		return nil, &Error{Op: "update", TaskID: id, Err: err}
	}
	s.logger.Info("task updated", "id", id)
	return t, nil
}

func (s *Service) Get(id string) (*models.Task, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return nil, &Error{Op: "get", TaskID: id, Err: err}
	}
	return t, nil
}

func (s *Service) List(f db.TaskFilter) ([]models.Task, error) {
	tasks, err := s.store.ListTasks(f)
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	return tasks, nil
}

// SetStatus moves a task to status, refusing done while required subtasks
// are pending
func (s *Service) SetStatus(id string, status models.Status) (*models.Task, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return nil, &Error{Op: "set status", TaskID: id, Err: err}
	}
	if err := t.SetStatus(status); err != nil {
		s.logger.Debug("status change refused", "id", id, "status", status, "pending", t.PendingRequiredCount())
		return t, &Error{Op: "set status", TaskID: id, Err: err}
	}
	if err := s.store.SetTaskStatus(id, t.Status); err != nil {
		return nil, &Error{Op: "set status", TaskID: id, Err: err}
	}
	return t, nil
}

// AdvanceStatus cycles todo, in-progress, done and back to todo
func (s *Service) AdvanceStatus(id string) (*models.Task, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return nil, &Error{Op: "set status", TaskID: id, Err: err}
	}
	return s.SetStatus(id, t.Status.Next())
}

// CompleteSubtask marks a subtask as completed or reopens it
func (s *Service) CompleteSubtask(taskID, subtaskID string, completed bool) (*models.Task, error) {
	t, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, &Error{Op: "complete subtask", TaskID: taskID, Err: err}
	}
	before := t.Status
	if err := t.CompleteSubtask(subtaskID, completed); err != nil {
		return nil, &Error{Op: "complete subtask", TaskID: taskID, Err: err}
	}
	if err := s.store.SetSubtaskCompleted(taskID, subtaskID, completed); err != nil {
		return nil, &Error{Op: "complete subtask", TaskID: taskID, Err: err}
	}
	if t.Status != before {
		if err := s.store.SetTaskStatus(taskID, t.Status); err != nil {
			return nil, &Error{Op: "complete subtask", TaskID: taskID, Err: err}
		}
	}
	return t, nil
}

// ToggleSubtask flips the completion of a subtask
func (s *Service) ToggleSubtask(taskID, subtaskID string) (*models.Task, error) {
	t, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, &Error{Op: "complete subtask", TaskID: taskID, Err: err}
	}
	st, ok := t.Subtask(subtaskID)
	if !ok {
		return nil, &Error{Op: "complete subtask", TaskID: taskID, Err: models.ErrSubtaskNotFound}
	}
	return s.CompleteSubtask(taskID, subtaskID, !st.Completed)
}

// Counts returns the number of tasks per status and per tag
func (s *Service) Counts() (map[models.Status]int, map[string]int, error) {
	byStatus, err := s.store.TaskCount()
	if err != nil {
		return nil, nil, &Error{Op: "count", Err: err}
	}
	byTag, err := s.store.TagCounts()
	if err != nil {
		return nil, nil, &Error{Op: "count", Err: err}
	}
	return byStatus, byTag, nil
}

func (s *Service) Delete(id string) error {
	if err := s.store.DeleteTask(id); err != nil {
		return &Error{Op: "delete", TaskID: id, Err: err}
	}
	s.logger.Info("task deleted", "id", id)
	return nil
}
