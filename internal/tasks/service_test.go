package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/prevtech/internal/db"
	"github.com/tgienger/prevtech/internal/models"
	"github.com/tgienger/prevtech/internal/workflow"
)

func newTestService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	svc := NewService(database, workflow.DefaultCatalog(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}
	return svc, database
}

func validRequest() CreateTaskRequest {
	return CreateTaskRequest{
		Title:    "Onboarding Maria Silva",
		Priority: "high",
		Assignee: "ana.souza",
		DueDate:  "2025-11-10",
		Tags:     []string{"Cliente"},
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := map[string]func(r *CreateTaskRequest){
		"missing title":   func(r *CreateTaskRequest) { r.Title = "" },
		"bad priority":    func(r *CreateTaskRequest) { r.Priority = "urgent" },
		"missing owner":   func(r *CreateTaskRequest) { r.Assignee = "" },
		"bad date":        func(r *CreateTaskRequest) { r.DueDate = "10/11/2025" },
		"unknown tag":     func(r *CreateTaskRequest) { r.Tags = []string{"Inventada"} },
		"duplicate tag":   func(r *CreateTaskRequest) { r.Tags = []string{"Prazo", "Prazo"} },
		"removed without": func(r *CreateTaskRequest) { r.RemovedSubtasks = []string{"st1"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)

			_, err := svc.Create(req)
			assert.ErrorIs(t, err, ErrInvalidRequest)

			var opErr *Error
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, "create", opErr.Op)
		})
	}
}

func TestCreate_WithTemplate(t *testing.T) {
	svc, database := newTestService(t)

	req := validRequest()
	req.TemplateID = "onboarding-cliente"
	req.RemovedSubtasks = []string{"st3"}

	task, err := svc.Create(req)
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Len(t, task.Subtasks, 3)
	assert.Equal(t, "onboarding-cliente", task.TemplateID)
	assert.Equal(t, 3, task.PendingRequiredCount())
	assert.False(t, task.CanComplete())

	stored, err := database.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-03", models.FormatDate(stored.Subtasks[0].DueDate))
	assert.Equal(t, []string{"Cliente"}, stored.Tags)
}

func TestCreate_RemovingEverySubtaskDropsBinding(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.TemplateID = "recurso-administrativo"
	req.RemovedSubtasks = []string{"st1", "st2", "st3"}

	task, err := svc.Create(req)
	require.NoError(t, err)
	assert.Empty(t, task.TemplateID)
	assert.False(t, Payload(task).HasSubtasks)
}

func TestCreate_UnknownTemplate(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.TemplateID = "missing"

	_, err := svc.Create(req)
	assert.ErrorIs(t, err, workflow.ErrTemplateNotFound)
}

func TestCreate_WithoutDueDate(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.DueDate = ""
	req.TemplateID = "onboarding-cliente"

	task, err := svc.Create(req)
	require.NoError(t, err)
	for _, st := range task.Subtasks {
		assert.Nil(t, st.DueDate)
	}
}

func TestSetStatus_Gating(t *testing.T) {
	svc, database := newTestService(t)

	req := validRequest()
	req.TemplateID = "aposentadoria-inss"
	task, err := svc.Create(req)
	require.NoError(t, err)

	_, err = svc.SetStatus(task.ID, models.StatusDone)
	assert.ErrorIs(t, err, models.ErrRequiredSubtasksPending)

	// optional subtasks do not gate completion
	for _, id := range []string{"st1", "st3"} {
		_, err = svc.CompleteSubtask(task.ID, id, true)
		require.NoError(t, err)
	}
	done, err := svc.SetStatus(task.ID, models.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, done.Status)

	// reopening a required subtask pulls the task back
	reopened, err := svc.ToggleSubtask(task.ID, "st3")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, reopened.Status)

	stored, err := database.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, stored.Status)
	assert.False(t, stored.Subtasks[2].Completed)
}

func TestAdvanceStatus(t *testing.T) {
	svc, _ := newTestService(t)

	task, err := svc.Create(validRequest())
	require.NoError(t, err)

	task, err = svc.AdvanceStatus(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)

	task, err = svc.AdvanceStatus(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status)

	task, err = svc.AdvanceStatus(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, task.Status)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.TemplateID = "revisao-contrato"
	task, err := svc.Create(req)
	require.NoError(t, err)

	updated, err := svc.Update(task.ID, UpdateTaskRequest{
		Title:    "Revisão contrato ACME",
		Priority: "low",
		Assignee: "diego.alves",
		DueDate:  "2025-12-01",
		Tags:     []string{"Contrato", "Financeiro"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, updated.Priority)
	assert.Equal(t, "2025-11-26", models.FormatDate(updated.Subtasks[0].DueDate))
	assert.Equal(t, "revisao-contrato", updated.TemplateID)

	_, err = svc.Update(task.ID, UpdateTaskRequest{Title: "", Priority: "low", Assignee: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Update("missing", UpdateTaskRequest{Title: "x", Priority: "low", Assignee: "x"})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Create(validRequest())
	require.NoError(t, err)
	second := validRequest()
	second.Title = "Audiência"
	second.Tags = []string{"Audiência"}
	_, err = svc.Create(second)
	require.NoError(t, err)

	list, err := svc.List(db.TaskFilter{Tag: "Audiência"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Audiência", list[0].Title)

	require.NoError(t, svc.Delete(a.ID))
	assert.ErrorIs(t, svc.Delete(a.ID), db.ErrNotFound)

	_, err = svc.Get(a.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDraftRequest(t *testing.T) {
	catalog := workflow.DefaultCatalog()
	draft := &models.Task{Title: "x", Priority: models.PriorityMedium, Assignee: "ana"}

	sel := workflow.NewSelection(catalog)
	sel.Open()
	require.NoError(t, sel.Select(draft, "onboarding-cliente"))
	sel.RemoveSubtask(draft, "st2")
	sel.RemoveSubtask(draft, "st4")

	req := DraftRequest(draft, catalog)
	assert.Equal(t, "onboarding-cliente", req.TemplateID)
	assert.Equal(t, []string{"st2", "st4"}, req.RemovedSubtasks)
	assert.Equal(t, "medium", req.Priority)

	plain := DraftRequest(&models.Task{Title: "y"}, catalog)
	assert.Empty(t, plain.TemplateID)
	assert.Nil(t, plain.RemovedSubtasks)
}

func TestPayload(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.TemplateID = "onboarding-cliente"
	req.LinkedPublicationRef = "DJE-2025-1123"
	task, err := svc.Create(req)
	require.NoError(t, err)

	p := Payload(task)
	assert.True(t, p.HasSubtasks)
	assert.Equal(t, "2025-11-10", p.DueDate)
	require.Len(t, p.Subtasks, 4)
	assert.Equal(t, "2025-11-07", p.Subtasks[2].DueDate)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"hasSubtasks":true`)
	assert.Contains(t, string(raw), `"templateId":"onboarding-cliente"`)
	assert.Contains(t, string(raw), `"linkedPublicationRef":"DJE-2025-1123"`)
	assert.NotContains(t, string(raw), "linkedProcessRef")

	empty := Payload(&models.Task{Title: "solo"})
	assert.False(t, empty.HasSubtasks)
	assert.NotNil(t, empty.Subtasks)
}

func TestCounts(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(validRequest())
	require.NoError(t, err)
	second := validRequest()
	second.Tags = []string{"Cliente", "Urgente"}
	b, err := svc.Create(second)
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(b.ID)
	require.NoError(t, err)

	byStatus, byTag, err := svc.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, byStatus[models.StatusTodo])
	assert.Equal(t, 1, byStatus[models.StatusInProgress])
	assert.Equal(t, 2, byTag["Cliente"])
	assert.Equal(t, 1, byTag["Urgente"])
	assert.Equal(t, 0, byTag["INSS"])
}

func TestNewValidator_FixedTag(t *testing.T) {
	var v *validator.Validate
	require.NotPanics(t, func() { v = NewValidator() })

	req := validRequest()
	assert.NoError(t, v.Struct(req))

	req.Tags = []string{"Inventada"}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, v.Struct(req), &verrs)
	assert.Equal(t, "fixedtag", verrs[0].Tag())
}
