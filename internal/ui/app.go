package ui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/prevtech/internal/db"
	"github.com/tgienger/prevtech/internal/permissions"
	"github.com/tgienger/prevtech/internal/tasks"
	"github.com/tgienger/prevtech/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTasks View = iota
	ViewPermissions
)

// settings key remembering the last screen
const lastViewKey = "last_view"

func (v View) String() string {
	if v == ViewPermissions {
		return "permissions"
	}
	return "tasks"
}

type App struct {
	db          *db.DB
	logger      *slog.Logger
	currentView View
	taskList    *views.TaskListView
	permissions *views.PermissionsView
	width       int
	height      int
}

// Creates a new application. matrix is the loaded permission grid; the
// permissions screen edits it in place.
func NewApp(database *db.DB, svc *tasks.Service, matrix *permissions.Matrix, logger *slog.Logger) *App {
	return &App{
		db:          database,
		logger:      logger,
		currentView: ViewTasks,
		taskList:    views.NewTaskListView(svc, logger.With("view", "tasks")),
		permissions: views.NewPermissionsView(database, matrix, logger.With("view", "permissions")),
	}
}

func (a *App) Init() tea.Cmd {
	// Reopen the screen that was active on exit
	last, err := a.db.GetSetting(lastViewKey)
	if err == nil && last == ViewPermissions.String() {
		a.currentView = ViewPermissions
	}

	return tea.Batch(a.taskList.Init(), a.permissions.Init())
}

func (a *App) switchTo(view View) tea.Cmd {
	a.currentView = view
	if err := a.db.SetSetting(lastViewKey, view.String()); err != nil {
		a.logger.Warn("saving last view", "error", err)
	}

	refresh := a.taskList.Init()
	if view == ViewPermissions {
		refresh = a.permissions.Init()
	}
	return tea.Batch(
		refresh,
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Both views keep their layout in sync
		a.taskList.Update(msg)
		a.permissions.Update(msg)
		return a, nil

	case views.OpenPermissions:
		return a, a.switchTo(ViewPermissions)

	case views.BackToTasks:
		return a, a.switchTo(ViewTasks)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	case ViewPermissions:
		_, cmd = a.permissions.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	if a.currentView == ViewPermissions {
		return a.permissions.View()
	}
	return a.taskList.View()
}
