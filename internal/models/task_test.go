package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, v string) *time.Time {
	t.Helper()
	d, err := ParseDate(v)
	require.NoError(t, err)
	return d
}

func onboarding() WorkflowTemplate {
	return WorkflowTemplate{
		ID:       "onboarding-cliente",
		Name:     "Onboarding de Cliente",
		Category: "Clientes",
		Subtasks: []SubtaskDefinition{
			{ID: "st1", Title: "Coletar documentos", Assignee: "ana", DueOffset: 7, Required: true, Order: 1},
			{ID: "st2", Title: "Cadastrar no sistema", Assignee: "bruno", DueOffset: 5, Required: true, Order: 2},
			{ID: "st3", Title: "Assinar contrato", Assignee: "ana", DueOffset: 3, Required: true, Order: 3},
			{ID: "st4", Title: "Reunião inicial", Assignee: "carla", DueOffset: 0, Required: true, Order: 4},
		},
	}
}

func TestResolveDueDate(t *testing.T) {
	parent := date(t, "2025-11-10")

	assert.Equal(t, "2025-11-07", FormatDate(ResolveDueDate(parent, 3)))
	assert.Equal(t, *parent, *ResolveDueDate(parent, 0))
	assert.Equal(t, "2025-10-31", FormatDate(ResolveDueDate(parent, 10)))
	assert.Equal(t, "2025-11-12", FormatDate(ResolveDueDate(parent, -2)))
	assert.Nil(t, ResolveDueDate(nil, 3))
}

func TestAttachTemplate_CopiesDefinitions(t *testing.T) {
	tmpl := onboarding()
	task := &Task{}

	task.AttachTemplate(tmpl)

	require.Len(t, task.Subtasks, len(tmpl.Subtasks))
	for i, st := range task.Subtasks {
		assert.Equal(t, tmpl.Subtasks[i], st.SubtaskDefinition)
		assert.False(t, st.Completed)
		assert.Nil(t, st.DueDate, "no parent due date yet")
	}
	assert.Equal(t, "onboarding-cliente", task.TemplateID)
	assert.True(t, task.HasSubtasks())
}

func TestAttachTemplate_ReplacesAndSortsByOrder(t *testing.T) {
	task := &Task{DueDate: date(t, "2025-11-10")}
	task.AttachTemplate(onboarding())
	require.NoError(t, task.CompleteSubtask("st1", true))

	other := WorkflowTemplate{
		ID: "other",
		Subtasks: []SubtaskDefinition{
			{ID: "b", Order: 2, DueOffset: 1},
			{ID: "a", Order: 1, DueOffset: 2},
			{ID: "c", Order: 2, DueOffset: 0},
		},
	}
	task.AttachTemplate(other)

	require.Len(t, task.Subtasks, 3)
	assert.Equal(t, "a", task.Subtasks[0].ID)
	assert.Equal(t, "b", task.Subtasks[1].ID)
	assert.Equal(t, "c", task.Subtasks[2].ID)
	assert.Equal(t, "other", task.TemplateID)
	assert.Equal(t, "2025-11-08", FormatDate(task.Subtasks[0].DueDate))
	for _, st := range task.Subtasks {
		assert.False(t, st.Completed)
	}
}

func TestAttachTemplate_DoesNotAliasTemplate(t *testing.T) {
	tmpl := onboarding()
	task := &Task{}
	task.AttachTemplate(tmpl)

	task.Subtasks[0].Title = "changed"
	assert.Equal(t, "Coletar documentos", tmpl.Subtasks[0].Title)
}

func TestDetachTemplate_Idempotent(t *testing.T) {
	task := &Task{}
	task.AttachTemplate(onboarding())

	task.DetachTemplate()
	assert.Empty(t, task.Subtasks)
	assert.Empty(t, task.TemplateID)

	task.DetachTemplate()
	assert.Empty(t, task.Subtasks)
	assert.Empty(t, task.TemplateID)
	assert.False(t, task.HasSubtasks())
}

func TestRemoveSubtask_KeepsBinding(t *testing.T) {
	task := &Task{}
	task.AttachTemplate(onboarding())

	assert.True(t, task.RemoveSubtask("st3"))
	assert.False(t, task.RemoveSubtask("st3"))

	require.Len(t, task.Subtasks, 3)
	assert.Equal(t, "onboarding-cliente", task.TemplateID)
	assert.Equal(t, 3, task.PendingRequiredCount())
	assert.False(t, task.CanComplete())
}

func TestRemoveSubtask_LastClearsBinding(t *testing.T) {
	task := &Task{}
	task.AttachTemplate(onboarding())

	for _, id := range []string{"st1", "st2", "st3", "st4"} {
		require.True(t, task.RemoveSubtask(id))
	}

	assert.Empty(t, task.Subtasks)
	assert.Empty(t, task.TemplateID)
	assert.False(t, task.HasSubtasks())
	assert.True(t, task.CanComplete())
}

func TestSetDueDate_ResolvesSubtasks(t *testing.T) {
	task := &Task{}
	task.AttachTemplate(onboarding())

	task.SetDueDate(date(t, "2025-11-10"))

	assert.Equal(t, "2025-11-03", FormatDate(task.Subtasks[0].DueDate))
	assert.Equal(t, "2025-11-07", FormatDate(task.Subtasks[2].DueDate))
	assert.Equal(t, "2025-11-10", FormatDate(task.Subtasks[3].DueDate))

	task.SetDueDate(nil)
	for _, st := range task.Subtasks {
		assert.Nil(t, st.DueDate)
	}
}

func TestProgressAndGating(t *testing.T) {
	task := &Task{Subtasks: []Subtask{
		{SubtaskDefinition: SubtaskDefinition{ID: "a", Required: true}, Completed: true},
		{SubtaskDefinition: SubtaskDefinition{ID: "b", Required: false}, Completed: true},
		{SubtaskDefinition: SubtaskDefinition{ID: "c", Required: true}},
		{SubtaskDefinition: SubtaskDefinition{ID: "d", Required: false}},
	}}

	assert.Equal(t, 1, task.PendingRequiredCount())
	assert.False(t, task.CanComplete())

	pct, ok := task.Progress()
	require.True(t, ok)
	assert.InDelta(t, 25.0, pct, 0.001)

	require.NoError(t, task.CompleteSubtask("c", true))
	assert.True(t, task.CanComplete())
	pct, _ = task.Progress()
	assert.InDelta(t, 50.0, pct, 0.001)
}

func TestProgress_NoSubtasks(t *testing.T) {
	task := &Task{}

	_, ok := task.Progress()
	assert.False(t, ok)
	assert.Equal(t, 0, task.PendingRequiredCount())
	assert.True(t, task.CanComplete())
	assert.NoError(t, task.SetStatus(StatusDone))
}

func TestSetStatus(t *testing.T) {
	task := &Task{Status: StatusTodo}
	task.AttachTemplate(onboarding())

	assert.ErrorIs(t, task.SetStatus("archived"), ErrInvalidStatus)
	assert.ErrorIs(t, task.SetStatus(StatusDone), ErrRequiredSubtasksPending)
	assert.Equal(t, StatusTodo, task.Status)

	require.NoError(t, task.SetStatus(StatusInProgress))
	for _, id := range []string{"st1", "st2", "st3", "st4"} {
		require.NoError(t, task.CompleteSubtask(id, true))
	}
	require.NoError(t, task.SetStatus(StatusDone))

	require.NoError(t, task.CompleteSubtask("st2", false))
	assert.Equal(t, StatusInProgress, task.Status)
}

func TestCompleteSubtask_Unknown(t *testing.T) {
	task := &Task{}
	assert.ErrorIs(t, task.CompleteSubtask("nope", true), ErrSubtaskNotFound)
}

func TestToggleTag(t *testing.T) {
	task := &Task{}
	task.ToggleTag("Urgente")
	task.ToggleTag("INSS")
	assert.Equal(t, []string{"Urgente", "INSS"}, task.Tags)

	task.ToggleTag("Urgente")
	assert.Equal(t, []string{"INSS"}, task.Tags)
	assert.True(t, task.HasTag("INSS"))
}

func TestEnums(t *testing.T) {
	s, err := ParseStatus(" In-Progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)
	assert.Equal(t, StatusDone, s.Next())
	assert.Equal(t, StatusTodo, StatusDone.Next())

	_, err = ParseStatus("blocked")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	p, ok := ParsePriority("HIGH")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)
	_, ok = ParsePriority("urgent")
	assert.False(t, ok)

	assert.True(t, IsFixedTag("Prazo"))
	assert.False(t, IsFixedTag("prazo"))
}
