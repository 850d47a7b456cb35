package tasks

import "github.com/tgienger/prevtech/internal/models"

// SubtaskPayload is one subtask in the save payload, with its resolved date
type SubtaskPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	DueOffset   int    `json:"dueOffset"`
	DueDate     string `json:"dueDate,omitempty"`
	IsRequired  bool   `json:"isRequired"`
	Order       int    `json:"order"`
	Completed   bool   `json:"completed"`
}

// SavePayload is what a task looks like to an external persistence
// collaborator
type SavePayload struct {
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	Status               string           `json:"status"`
	Priority             string           `json:"priority"`
	Assignee             string           `json:"assignee"`
	DueDate              string           `json:"dueDate,omitempty"`
	Tags                 []string         `json:"tags"`
	Subtasks             []SubtaskPayload `json:"subtasks"`
	HasSubtasks          bool             `json:"hasSubtasks"`
	TemplateID           string           `json:"templateId,omitempty"`
	LinkedPublicationRef string           `json:"linkedPublicationRef,omitempty"`
	LinkedProcessRef     string           `json:"linkedProcessRef,omitempty"`
}

// Payload renders t as a SavePayload. HasSubtasks is derived from the
// subtask list so the two always agree.
func Payload(t *models.Task) SavePayload {
	p := SavePayload{
		Title:                t.Title,
		Description:          t.Description,
		Status:               t.Status.String(),
		Priority:             t.Priority.String(),
		Assignee:             t.Assignee,
		DueDate:              models.FormatDate(t.DueDate),
		Tags:                 append([]string{}, t.Tags...),
		Subtasks:             make([]SubtaskPayload, 0, len(t.Subtasks)),
		HasSubtasks:          t.HasSubtasks(),
		TemplateID:           t.TemplateID,
		LinkedPublicationRef: t.LinkedPublicationRef,
		LinkedProcessRef:     t.LinkedProcessRef,
	}
	for _, st := range t.Subtasks {
		p.Subtasks = append(p.Subtasks, SubtaskPayload{
			ID:          st.ID,
			Title:       st.Title,
			Description: st.Description,
			Assignee:    st.Assignee,
			DueOffset:   st.DueOffset,
			DueDate:     models.FormatDate(st.DueDate),
			IsRequired:  st.Required,
			Order:       st.Order,
			Completed:   st.Completed,
		})
	}
	return p
}
