package views

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/prevtech/internal/db"
	"github.com/tgienger/prevtech/internal/models"
	"github.com/tgienger/prevtech/internal/permissions"
	"github.com/tgienger/prevtech/internal/tasks"
	"github.com/tgienger/prevtech/internal/ui/styles"
	"github.com/tgienger/prevtech/internal/workflow"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTemplatePicker_SelectAndRemove(t *testing.T) {
	p := NewTemplatePicker(workflow.DefaultCatalog(), styles.NewStyles())
	due := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	task := &models.Task{DueDate: &due}

	handled, _ := p.Update(keyMsg("a"), task)
	require.True(t, handled)
	assert.Equal(t, workflow.StateBrowsing, p.State())

	// typing while browsing never leaks out
	handled, _ = p.Update(keyMsg("z"), task)
	assert.True(t, handled)

	// first template of "All" is onboarding-cliente
	p.Update(keyMsg("enter"), task)
	assert.Equal(t, workflow.StateBound, p.State())
	assert.Equal(t, "onboarding-cliente", task.TemplateID)
	require.Len(t, task.Subtasks, 4)
	assert.Equal(t, "2025-11-03", models.FormatDate(task.Subtasks[0].DueDate))

	p.Update(keyMsg("down"), task)
	p.Update(keyMsg("down"), task)
	p.Update(keyMsg("x"), task)
	assert.Len(t, task.Subtasks, 3)
	_, ok := task.Subtask("st3")
	assert.False(t, ok)
	assert.Equal(t, "onboarding-cliente", task.TemplateID)

	p.Update(keyMsg("r"), task)
	assert.Equal(t, workflow.StateClosed, p.State())
	assert.Empty(t, task.Subtasks)
	assert.Empty(t, task.TemplateID)
}

func TestTemplatePicker_CategoryFilter(t *testing.T) {
	p := NewTemplatePicker(workflow.DefaultCatalog(), styles.NewStyles())
	task := &models.Task{}

	p.Update(keyMsg("enter"), task)
	p.Update(keyMsg("right"), task)
	assert.Equal(t, p.selection.Categories()[1], p.selection.Category())

	p.Update(keyMsg("esc"), task)
	assert.Equal(t, workflow.StateClosed, p.State())
	assert.Empty(t, task.TemplateID)
}

type fakePermissionStore struct {
	saved   []models.PermissionChange
	saveErr error
}

func (f *fakePermissionStore) SavePermissions(m *permissions.Matrix, changes []models.PermissionChange) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, changes...)
	return nil
}

func (f *fakePermissionStore) ListPermissionChanges(limit int) ([]models.PermissionChange, error) {
	return f.saved, nil
}

func newPermissionsView(store PermissionStore) (*PermissionsView, *permissions.Matrix) {
	m := permissions.DefaultMatrix()
	return NewPermissionsView(store, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func TestPermissionsView_ToggleRequiresEditMode(t *testing.T) {
	v, m := newPermissionsView(&fakePermissionStore{})
	before := m.Clone()

	v.Update(keyMsg(" "))
	assert.True(t, m.Equal(before))
}

func TestPermissionsView_SaveFlow(t *testing.T) {
	store := &fakePermissionStore{}
	v, m := newPermissionsView(store)

	// Administrador, Contratos, Create starts granted
	v.Update(keyMsg("e"))
	v.Update(keyMsg(" "))
	assert.False(t, m.Get("Contratos", "Administrador", permissions.Create))

	v.Update(keyMsg("ctrl+s"))
	require.True(t, v.confirming)

	_, cmd := v.Update(keyMsg("y"))
	assert.NotNil(t, cmd)
	assert.False(t, v.session.Editing())
	require.Len(t, store.saved, 1)
	assert.Equal(t, models.PermissionChange{
		Profile:    "Administrador",
		Resource:   "Contratos",
		Permission: "Create",
		OldValue:   true,
		NewValue:   false,
	}, store.saved[0])
}

func TestPermissionsView_SaveFailureKeepsEdits(t *testing.T) {
	store := &fakePermissionStore{saveErr: errors.New("disk full")}
	v, m := newPermissionsView(store)

	v.Update(keyMsg("e"))
	v.Update(keyMsg(" "))
	v.Update(keyMsg("ctrl+s"))
	v.Update(keyMsg("y"))

	assert.True(t, v.session.Editing())
	assert.Error(t, v.err)
	assert.False(t, m.Get("Contratos", "Administrador", permissions.Create))
}

func TestPermissionsView_LockedCell(t *testing.T) {
	v, m := newPermissionsView(&fakePermissionStore{})

	v.Update(keyMsg("e"))
	v.Update(keyMsg("down")) // Contatos
	for range 3 {
		v.Update(keyMsg("right")) // Delete
	}
	v.Update(keyMsg(" "))

	assert.False(t, m.Get(permissions.LockedResource, "Administrador", permissions.Delete))
	assert.Empty(t, v.session.Changes())
	assert.Contains(t, v.notice, "locked")
}

func TestPermissionsView_EscCancelsThenLeaves(t *testing.T) {
	v, m := newPermissionsView(&fakePermissionStore{})
	before := m.Clone()

	v.Update(keyMsg("e"))
	v.Update(keyMsg(" "))
	_, cmd := v.Update(keyMsg("esc"))
	assert.Nil(t, cmd)
	assert.True(t, m.Equal(before))

	_, cmd = v.Update(keyMsg("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, BackToTasks{}, cmd())
}

func newTaskListView(t *testing.T) (*TaskListView, *tasks.Service) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "views.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := tasks.NewService(database, workflow.DefaultCatalog(), logger)
	return NewTaskListView(svc, logger), svc
}

// press feeds keys to the view. Returned commands are not run; tests
// call reload where the list must be refreshed.
func press(v *TaskListView, ks ...string) {
	for _, k := range ks {
		v.Update(keyMsg(k))
	}
}

func reload(v *TaskListView) {
	v.Update(v.loadTasks())
}

func TestTaskListView_GatedStatusIsReported(t *testing.T) {
	v, svc := newTaskListView(t)
	task, err := svc.Create(tasks.CreateTaskRequest{
		Title:      "Onboarding Maria Silva",
		Priority:   "high",
		Assignee:   "ana.souza",
		DueDate:    "2025-11-10",
		TemplateID: "onboarding-cliente",
	})
	require.NoError(t, err)
	reload(v)
	require.Len(t, v.tasks, 1)

	press(v, "s")
	assert.Contains(t, v.View(), "Status: In progress")
	reload(v)

	press(v, "s")
	reload(v)
	assert.Equal(t, "4 required subtask(s) pending", v.notice)
	view := v.View()
	assert.Contains(t, view, "4 required subtask(s) pending")
	assert.Contains(t, view, "In progress 1")

	stored, err := svc.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, stored.Status)

	// the next key clears the refusal
	press(v, "down")
	assert.NotContains(t, v.View(), "required subtask(s) pending")
}

func TestTaskListView_CreateWithTemplate(t *testing.T) {
	v, svc := newTaskListView(t)
	reload(v)

	press(v, "n")
	require.True(t, v.editing)
	press(v, "Onboarding Maria", "tab") // title
	press(v, "tab")                     // description
	press(v, "ana.souza", "tab")        // assignee
	press(v, "tab")                     // priority stays medium
	press(v, "2025-11-10", "tab")       // due date
	press(v, " ", "tab")                // tag Urgente
	press(v, "a", "enter")              // bind the first template
	press(v, "down", "down", "x")       // drop st3
	require.Equal(t, "onboarding-cliente", v.draft.TemplateID)
	require.Len(t, v.draft.Subtasks, 3)

	press(v, "ctrl+s")
	require.False(t, v.editing, v.formErr)
	reload(v)
	require.Len(t, v.tasks, 1)

	stored, err := svc.Get(v.tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding Maria", stored.Title)
	assert.Equal(t, models.PriorityMedium, stored.Priority)
	assert.Equal(t, []string{"Urgente"}, stored.Tags)
	assert.Equal(t, "onboarding-cliente", stored.TemplateID)
	require.Len(t, stored.Subtasks, 3)
	assert.Equal(t, []string{"st1", "st2", "st4"}, []string{
		stored.Subtasks[0].ID, stored.Subtasks[1].ID, stored.Subtasks[2].ID,
	})
	assert.Equal(t, "2025-11-03", models.FormatDate(stored.Subtasks[0].DueDate))
	assert.Equal(t, 3, stored.PendingRequiredCount())
}

func TestTaskListView_CreateShowsValidationError(t *testing.T) {
	v, svc := newTaskListView(t)
	reload(v)

	press(v, "n", "ctrl+s")
	assert.True(t, v.editing)
	assert.Contains(t, v.formErr, "title")

	list, err := svc.List(db.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTaskListView_EditTask(t *testing.T) {
	v, svc := newTaskListView(t)
	task, err := svc.Create(tasks.CreateTaskRequest{
		Title:      "Revisão contrato",
		Priority:   "medium",
		Assignee:   "diego.alves",
		DueDate:    "2025-11-10",
		Tags:       []string{"Contrato"},
		TemplateID: "revisao-contrato",
	})
	require.NoError(t, err)
	reload(v)

	press(v, "e")
	require.True(t, v.editing)
	require.False(t, v.editingNew)
	press(v, " ACME", "tab")                 // title
	press(v, "tab", "tab")                   // description, assignee
	press(v, "right", "tab")                 // priority medium -> high
	press(v, "backspace", "backspace", "20") // due 2025-11-20
	press(v, "ctrl+s")
	require.False(t, v.editing, v.formErr)

	stored, err := svc.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Revisão contrato ACME", stored.Title)
	assert.Equal(t, models.PriorityHigh, stored.Priority)
	assert.Equal(t, "2025-11-20", models.FormatDate(stored.DueDate))
	assert.Equal(t, []string{"Contrato"}, stored.Tags)
	assert.Equal(t, "revisao-contrato", stored.TemplateID)
	// subtask dates follow the new due date
	assert.Equal(t, "2025-11-15", models.FormatDate(stored.Subtasks[0].DueDate))
}
