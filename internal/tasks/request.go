package tasks

import (
	"github.com/go-playground/validator/v10"
	"github.com/tgienger/prevtech/internal/models"
	"github.com/tgienger/prevtech/internal/workflow"
)

// CreateTaskRequest is the boundary shape for creating a task
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Priority    string   `json:"priority" validate:"required,oneof=low medium high"`
	Assignee    string   `json:"assignee" validate:"required,max=100"`
	DueDate     string   `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Tags        []string `json:"tags" validate:"unique,dive,fixedtag"`

	// TemplateID seeds the subtasks; RemovedSubtasks drops some of them
	TemplateID      string   `json:"templateId" validate:"omitempty,max=100"`
	RemovedSubtasks []string `json:"removedSubtasks" validate:"excluded_without=TemplateID"`

	LinkedPublicationRef string `json:"linkedPublicationRef,omitempty" validate:"max=100"`
	LinkedProcessRef     string `json:"linkedProcessRef,omitempty" validate:"max=100"`
}

// UpdateTaskRequest carries the fields editable after creation
type UpdateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Priority    string   `json:"priority" validate:"required,oneof=low medium high"`
	Assignee    string   `json:"assignee" validate:"required,max=100"`
	DueDate     string   `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Tags        []string `json:"tags" validate:"unique,dive,fixedtag"`
}

// NewValidator returns a validator that knows the fixedtag rule. It panics
// if the rule cannot be registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("fixedtag", func(fl validator.FieldLevel) bool {
		return models.IsFixedTag(fl.Field().String())
	})
	if err != nil {
		panic("tasks: registering fixedtag rule: " + err.Error())
	}
	return v
}

// DraftRequest builds the creation request for a draft task edited through
// the template selection flow. Subtasks the user removed from the bound
// template are listed in RemovedSubtasks.
func DraftRequest(draft *models.Task, source workflow.TemplateSource) CreateTaskRequest {
	req := CreateTaskRequest{
		Title:                draft.Title,
		Description:          draft.Description,
		Priority:             draft.Priority.String(),
		Assignee:             draft.Assignee,
		DueDate:              models.FormatDate(draft.DueDate),
		Tags:                 append([]string(nil), draft.Tags...),
		TemplateID:           draft.TemplateID,
		LinkedPublicationRef: draft.LinkedPublicationRef,
		LinkedProcessRef:     draft.LinkedProcessRef,
	}
	if draft.TemplateID == "" {
		return req
	}
	tmpl, ok := source.GetTemplate(draft.TemplateID)
	if !ok {
		return req
	}
	for _, def := range tmpl.Subtasks {
		if _, kept := draft.Subtask(def.ID); !kept {
			req.RemovedSubtasks = append(req.RemovedSubtasks, def.ID)
		}
	}
	return req
}
