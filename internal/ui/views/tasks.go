package views

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"
	"github.com/tgienger/prevtech/internal/db"
	"github.com/tgienger/prevtech/internal/models"
	"github.com/tgienger/prevtech/internal/tasks"
	"github.com/tgienger/prevtech/internal/ui/keys"
	"github.com/tgienger/prevtech/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusPermissionsButton FocusArea = iota
	FocusSearchInput
	FocusTagDropdown
	FocusTaskList
)

// Edit form fields in tab order
const (
	fieldTitle = iota
	fieldDesc
	fieldAssignee
	fieldPriority
	fieldDue
	fieldTags
	fieldTemplate
	fieldSave
	fieldCount
)

// TaskListView shows the task board
type TaskListView struct {
	svc    *tasks.Service
	logger *slog.Logger
	tasks  []models.Task
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	// UI state
	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model
	selectedTag string // "" = no filter
	err         error

	// Tag dropdown state
	tagDropdownOpen bool
	tagCursor       int

	// Task creation/editing
	editing       bool
	editingNew    bool
	editTaskID    string
	editTitle     textinput.Model
	editDesc      textarea.Model
	editAssignee  textinput.Model
	editPriority  models.Priority
	editDue       textinput.Model
	editFocusIdx  int
	editTagCursor int
	formErr       string
	draft         *models.Task // tags, due date and template binding of the form
	picker        *TemplatePicker

	// Task detail view
	viewingTask   bool
	viewTaskID    string
	subtaskCursor int
	notice        string // feedback from the last action

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	// Show completed tasks mode
	showingCompleted bool

	// Board totals shown in the header and tag dropdown
	statusCounts map[models.Status]int
	tagCounts    map[string]int

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a new task list view
func NewTaskListView(svc *tasks.Service, logger *slog.Logger) *TaskListView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 2000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editAssignee := textinput.New()
	editAssignee.Placeholder = "ana.souza"
	editAssignee.CharLimit = 100

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD"
	editDue.CharLimit = 10

	return &TaskListView{
		svc:          svc,
		logger:       logger,
		styles:       s,
		keys:         keys.DefaultKeyMap(),
		focus:        FocusTaskList,
		searchInput:  search,
		editTitle:    editTitle,
		editDesc:     editDesc,
		editAssignee: editAssignee,
		editDue:      editDue,
		picker:       NewTemplatePicker(svc.Catalog(), s),
	}
}

// OpenPermissions asks the app to switch to the permission matrix
type OpenPermissions struct{}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

type tasksLoadedMsg struct {
	tasks        []models.Task
	statusCounts map[models.Status]int
	tagCounts    map[string]int
}

func (v *TaskListView) loadTasks() tea.Msg {
	filter := db.TaskFilter{
		Search:   strings.TrimSpace(v.searchInput.Value()),
		Tag:      v.selectedTag,
		HideDone: true,
	}
	if v.showingCompleted {
		filter.Status = models.StatusDone
	}

	list, err := v.svc.List(filter)
	if err != nil {
		return err
	}
	byStatus, byTag, err := v.svc.Counts()
	if err != nil {
		return err
	}
	return tasksLoadedMsg{tasks: list, statusCounts: byStatus, tagCounts: byTag}
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		inputWidth := clamp(contentWidth-10, 20, 60)
		v.editDesc.SetWidth(inputWidth)
		v.picker.SetWidth(inputWidth)
		return v, nil

	case tasksLoadedMsg:
		v.tasks = msg.tasks
		v.statusCounts = msg.statusCounts
		v.tagCounts = msg.tagCounts
		v.err = nil
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		// The viewed task may have been filtered out (e.g. marked done)
		if v.viewingTask && v.indexOf(v.viewTaskID) < 0 {
			v.viewingTask = false
		}
		return v, nil

	case error:
		v.err = msg
		v.logger.Error("task view", "error", msg)
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.viewingTask {
			return v.updateViewingTask(msg)
		}

		if v.tagDropdownOpen {
			return v.updateTagDropdown(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle search input typing first - don't process hotkeys while typing
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, v.loadTasks
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			return v, tea.Batch(cmd, v.loadTasks)
		}
	}

	// A notice describes the previous keypress only
	v.notice = ""

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Permissions):
		return v, func() tea.Msg { return OpenPermissions{} }

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.cycleFocus(-1)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusTaskList && v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusTaskList && v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.focus {
		case FocusPermissionsButton:
			return v, func() tea.Msg { return OpenPermissions{} }
		case FocusTagDropdown:
			v.tagDropdownOpen = true
			v.tagCursor = 0
			return v, nil
		case FocusTaskList:
			if len(v.tasks) > 0 {
				v.openTask(v.tasks[v.cursor])
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if v.focus == FocusTaskList && len(v.tasks) > 0 {
			v.startEditTask(v.tasks[v.cursor])
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if v.focus == FocusTaskList && len(v.tasks) > 0 {
			v.confirmDelete(v.tasks[v.cursor])
		}
		return v, nil

	case key.Matches(msg, v.keys.Status):
		if v.focus == FocusTaskList && len(v.tasks) > 0 {
			v.advanceStatus(v.tasks[v.cursor].ID)
			return v, v.loadTasks
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.focus = FocusTagDropdown
		v.tagDropdownOpen = true
		v.tagCursor = 0
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		v.showingCompleted = !v.showingCompleted
		v.cursor = 0
		v.scrollY = 0
		return v, v.loadTasks
	}

	return v, nil
}

func (v *TaskListView) updateTagDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.tagDropdownOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.tagCursor > 0 {
			v.tagCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.tagCursor < len(models.FixedTags) { // +1 for "None" option
			v.tagCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.tagCursor == 0 {
			v.selectedTag = ""
		} else {
			v.selectedTag = models.FixedTags[v.tagCursor-1]
		}
		v.tagDropdownOpen = false
		v.cursor = 0
		return v, v.loadTasks
	}

	return v, nil
}

func (v *TaskListView) confirmDelete(t models.Task) {
	v.confirmingDelete = true
	v.deleteTargetID = t.ID
	v.deleteTargetName = t.Title
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		if err := v.svc.Delete(v.deleteTargetID); err != nil {
			return v, func() tea.Msg { return err }
		}
		if v.viewTaskID == v.deleteTargetID {
			v.viewingTask = false
		}
		return v, v.loadTasks
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) openTask(t models.Task) {
	v.viewingTask = true
	v.viewTaskID = t.ID
	v.subtaskCursor = 0
	v.notice = ""
}

// viewedTask returns the task shown in the detail view
func (v *TaskListView) viewedTask() (models.Task, bool) {
	i := v.indexOf(v.viewTaskID)
	if i < 0 {
		return models.Task{}, false
	}
	return v.tasks[i], true
}

func (v *TaskListView) indexOf(id string) int {
	for i, t := range v.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// advanceStatus moves a task to its next status and reports refusals in
// the notice
func (v *TaskListView) advanceStatus(id string) {
	t, err := v.svc.AdvanceStatus(id)
	switch {
	case errors.Is(err, models.ErrRequiredSubtasksPending):
		v.notice = fmt.Sprintf("%d required subtask(s) pending", t.PendingRequiredCount())
	case err != nil:
		v.err = err
	default:
		v.notice = "Status: " + t.Status.Label()
	}
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, ok := v.viewedTask()
	if !ok {
		v.viewingTask = false
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Up):
		if v.subtaskCursor > 0 {
			v.subtaskCursor--
		}
		return v, nil
	case key.Matches(msg, v.keys.Down):
		if v.subtaskCursor < len(task.Subtasks)-1 {
			v.subtaskCursor++
		}
		return v, nil
	case key.Matches(msg, v.keys.Toggle), key.Matches(msg, v.keys.Enter):
		if v.subtaskCursor < len(task.Subtasks) {
			if _, err := v.svc.ToggleSubtask(task.ID, task.Subtasks[v.subtaskCursor].ID); err != nil {
				v.err = err
			}
			v.notice = ""
			return v, v.loadTasks
		}
		return v, nil
	case key.Matches(msg, v.keys.Status):
		v.advanceStatus(task.ID)
		return v, v.loadTasks
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.startEditTask(task)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.confirmDelete(task)
		return v, nil
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The template picker owns the keyboard while browsing
	if v.editFocusIdx == fieldTemplate && v.picker.Browsing() {
		_, cmd := v.picker.Update(msg, v.draft)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.moveEditFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.moveEditFocus(-1)
		return v, nil
	}

	switch v.editFocusIdx {
	case fieldTemplate:
		if handled, cmd := v.picker.Update(msg, v.draft); handled {
			return v, cmd
		}

	case fieldPriority:
		switch {
		case key.Matches(msg, v.keys.Left):
			v.editPriority = cyclePriority(v.editPriority, -1)
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Toggle):
			v.editPriority = cyclePriority(v.editPriority, 1)
		case key.Matches(msg, v.keys.Enter):
			v.moveEditFocus(1)
		}
		return v, nil

	case fieldTags:
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.editTagCursor > 0 {
				v.editTagCursor--
			}
		case key.Matches(msg, v.keys.Down):
			if v.editTagCursor < len(models.FixedTags)-1 {
				v.editTagCursor++
			}
		case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Toggle):
			v.draft.ToggleTag(models.FixedTags[v.editTagCursor])
		}
		return v, nil

	case fieldSave:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.saveTask()
		}
		return v, nil
	}

	// Enter on single line inputs moves to the next field
	if key.Matches(msg, v.keys.Enter) && v.editFocusIdx != fieldDesc {
		v.moveEditFocus(1)
		return v, nil
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldAssignee:
		v.editAssignee, cmd = v.editAssignee.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
		v.syncDraftDue()
	}
	return v, cmd
}

// syncDraftDue re-resolves the draft's subtask dates whenever the due date
// input holds a complete date or is cleared
func (v *TaskListView) syncDraftDue() {
	value := strings.TrimSpace(v.editDue.Value())
	if value == "" {
		v.draft.SetDueDate(nil)
		return
	}
	if d, err := models.ParseDate(value); err == nil {
		v.draft.SetDueDate(d)
	}
}

func cyclePriority(p models.Priority, dir int) models.Priority {
	n := len(models.Priorities)
	for i, x := range models.Priorities {
		if x == p {
			return models.Priorities[(i+dir+n)%n]
		}
	}
	return models.PriorityMedium
}

func (v *TaskListView) moveEditFocus(dir int) {
	v.editFocusIdx = (v.editFocusIdx + dir + fieldCount) % fieldCount
	// The template section only exists for new tasks
	if v.editFocusIdx == fieldTemplate && !v.editingNew {
		v.editFocusIdx = (v.editFocusIdx + dir + fieldCount) % fieldCount
	}
	v.updateEditFocus()
}

func (v *TaskListView) cycleFocus(dir int) {
	// Blur current
	v.searchInput.Blur()

	// Cycle
	v.focus = FocusArea((int(v.focus) + dir + 4) % 4)

	// Focus search if needed
	if v.focus == FocusSearchInput {
		v.searchInput.Focus()
	}
}

func (v *TaskListView) ensureVisible() {
	// Each task item is 2 lines + 1 margin = 3 lines
	availableHeight := max(v.height-12, 3)
	visibleItems := max(availableHeight/3, 1)

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func (v *TaskListView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editTaskID = ""
	v.editFocusIdx = fieldTitle
	v.editTagCursor = 0
	v.formErr = ""
	v.draft = &models.Task{}
	v.picker.Reset(v.draft)
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editAssignee.Reset()
	v.editDue.Reset()
	v.editPriority = models.PriorityMedium
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editTaskID = task.ID
	v.editFocusIdx = fieldTitle
	v.editTagCursor = 0
	v.formErr = ""
	v.draft = &models.Task{Tags: append([]string(nil), task.Tags...)}
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue(task.Description)
	v.editAssignee.SetValue(task.Assignee)
	v.editDue.SetValue(models.FormatDate(task.DueDate))
	v.editPriority = task.Priority
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editAssignee.Blur()
	v.editDue.Blur()

	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	case fieldAssignee:
		v.editAssignee.Focus()
	case fieldDue:
		v.editDue.Focus()
	}
}

func (v *TaskListView) saveTask() tea.Cmd {
	v.draft.Title = strings.TrimSpace(v.editTitle.Value())
	v.draft.Description = strings.TrimSpace(v.editDesc.Value())
	v.draft.Assignee = strings.TrimSpace(v.editAssignee.Value())
	v.draft.Priority = v.editPriority
	due := strings.TrimSpace(v.editDue.Value())

	var err error
	if v.editingNew {
		req := tasks.DraftRequest(v.draft, v.svc.Catalog())
		req.DueDate = due
		_, err = v.svc.Create(req)
	} else {
		_, err = v.svc.Update(v.editTaskID, tasks.UpdateTaskRequest{
			Title:       v.draft.Title,
			Description: v.draft.Description,
			Priority:    v.draft.Priority.String(),
			Assignee:    v.draft.Assignee,
			DueDate:     due,
			Tags:        v.draft.Tags,
		})
	}
	if err != nil {
		v.formErr = describeError(err)
		return nil
	}

	v.editing = false
	return v.loadTasks
}

// describeError turns validation failures into a short field list
func describeError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return "Check: " + strings.Join(fields, ", ")
	}
	if errors.Is(err, tasks.ErrInvalidRequest) {
		return "Invalid due date, use YYYY-MM-DD"
	}
	return err.Error()
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.viewingTask {
		return v.renderTaskView()
	}

	var b strings.Builder

	// Header with permissions button, search, and tag filter
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.ErrorText.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}
	if v.notice != "" {
		b.WriteString(v.styles.Changed.Render(v.notice))
		b.WriteString("\n\n")
	}

	// Task list
	b.WriteString(v.renderTaskList())

	// Help
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	// Search input - dynamic width
	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(contentWidth-8, 10, 30)
	v.searchInput.Placeholder = "Search..."
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	// Tag filter dropdown - show just tag name at narrow widths
	tagStyle := s.Button
	if v.focus == FocusTagDropdown {
		tagStyle = s.ButtonFocused
	}
	tagLabel := "All"
	if v.selectedTag != "" {
		tagLabel = v.selectedTag
	}
	if !isNarrow {
		tagLabel = "Tags: " + tagLabel
	}
	tagBtn := tagStyle.Render(tagLabel + " ▼")

	titleText := "Tarefas"
	if v.showingCompleted {
		titleText = "Tarefas (Concluídas)"
	}
	title := s.Title.Render(titleText) + "  " + v.renderStatusCounts()

	var header string
	if isNarrow {
		// Narrow: stack vertically, no permissions button (p still works)
		header = lipgloss.JoinVertical(lipgloss.Left,
			searchBox,
			tagBtn,
		)
	} else {
		permStyle := s.Button
		if v.focus == FocusPermissionsButton {
			permStyle = s.ButtonFocused
		}
		permBtn := permStyle.Render("⚿ Permissões")

		header = lipgloss.JoinHorizontal(lipgloss.Center,
			searchBox, "  ", tagBtn, "  ", permBtn,
		)
	}

	// Tag dropdown if open
	dropdown := ""
	if v.tagDropdownOpen {
		dropdown = "\n" + v.renderTagDropdown()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, header+dropdown)
}

// renderStatusCounts summarises the whole board, whatever the filters
func (v *TaskListView) renderStatusCounts() string {
	parts := make([]string, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", st.Label(), v.statusCounts[st]))
	}
	return v.styles.TitleMuted.Render(strings.Join(parts, " · "))
}

func (v *TaskListView) renderTagDropdown() string {
	s := v.styles
	var items []string

	// None option
	noneStyle := s.ListItem
	if v.tagCursor == 0 {
		noneStyle = s.ListSelected
	}
	items = append(items, noneStyle.Render("None"))

	for i, tag := range models.FixedTags {
		itemStyle := s.ListItem
		if v.tagCursor == i+1 {
			itemStyle = s.ListSelected
		}
		label := fmt.Sprintf("%s %s %s", s.Tag.Render("●"), tag, s.TitleMuted.Render(fmt.Sprintf("(%d)", v.tagCounts[tag])))
		items = append(items, itemStyle.Render(label))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)
	return s.Panel.Render(content)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	// Each task item is 2 lines (title + details) + 1 margin = 3 lines
	availableHeight := max(v.height-12, 3)
	visibleItems := max(availableHeight/3, 1)

	var items []string
	endIdx := min(v.scrollY+visibleItems, len(v.tasks))

	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && v.focus == FocusTaskList))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	titleLine := fmt.Sprintf("%s  %s", s.Priority(task.Priority), task.Title)

	details := []string{s.Status(task.Status)}
	if task.DueDate != nil {
		details = append(details, "⏲ "+models.FormatDate(task.DueDate))
	}
	if task.Assignee != "" {
		details = append(details, s.Assignee.Render("@"+task.Assignee))
	}
	if pct, ok := task.Progress(); ok {
		details = append(details, s.ProgressBar(pct, 10))
	}
	for _, tag := range task.Tags {
		details = append(details, s.Tag.Render("#"+tag))
	}
	detailLine := strings.Join(details, "  ")

	itemStyle := s.ListItem.Width(width)
	if selected {
		itemStyle = s.ListSelected.Width(width)
	}

	// Return two-line item with margin
	return lipgloss.JoinVertical(lipgloss.Left, itemStyle.Render(titleLine), itemStyle.Render(detailLine)) + "\n"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = "Edit Task"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}

	// Dynamic input width based on content width
	inputWidth := clamp(contentWidth-6, 20, 60)

	var priorities []string
	for _, p := range models.Priorities {
		if p == v.editPriority {
			priorities = append(priorities, s.TabActive.Render(p.String()))
		} else {
			priorities = append(priorities, s.Tab.Render(p.String()))
		}
	}

	rows := []string{
		s.Title.Render(formTitle),
		"",
		"Title:",
		fieldStyle(fieldTitle).Width(inputWidth).Render(v.editTitle.View()),
		"Description:",
		fieldStyle(fieldDesc).Render(v.editDesc.View()),
		lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.JoinVertical(lipgloss.Left, "Assignee:", fieldStyle(fieldAssignee).Width(24).Render(v.editAssignee.View())),
			"  ",
			lipgloss.JoinVertical(lipgloss.Left, "Due date:", fieldStyle(fieldDue).Width(14).Render(v.editDue.View())),
		),
		"Priority:",
		fieldStyle(fieldPriority).Render(strings.Join(priorities, " ")),
		"Tags:",
		v.renderEditTagSelector(fieldStyle(fieldTags), inputWidth),
	}

	if v.editingNew {
		rows = append(rows,
			"Template:",
			fieldStyle(fieldTemplate).Width(inputWidth).Render(v.picker.View(v.draft, v.editFocusIdx == fieldTemplate)),
		)
	}

	rows = append(rows, "", btnStyle.Render(" Save "))
	if v.formErr != "" {
		rows = append(rows, s.ErrorText.Render(v.formErr))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • ←→: priority • Space/↵: toggle tag • Ctrl+S: save • Esc: cancel"))

	return styles.Modal(lipgloss.JoinVertical(lipgloss.Left, rows...), v.width, v.height)
}

// renderEditTagSelector renders the fixed tag vocabulary as checkboxes,
// three per row
func (v *TaskListView) renderEditTagSelector(containerStyle lipgloss.Style, width int) string {
	s := v.styles

	var rows []string
	var row []string
	for i, tag := range models.FixedTags {
		item := styles.Checkbox(v.draft.HasTag(tag)) + " " + tag
		if v.editFocusIdx == fieldTags && i == v.editTagCursor {
			item = s.ListSelected.Render(item)
		} else {
			item = s.ListItem.Render(item)
		}
		row = append(row, lipgloss.NewStyle().Width(width/3).Render(item))
		if len(row) == 3 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	return containerStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	completedLabel := "done"
	if v.showingCompleted {
		completedLabel = "open"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s view • %s new • %s edit • %s status • %s del • %s search • %s filter • %s %s • %s perms • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("f"),
			v.styles.HelpKey.Render("c"),
			completedLabel,
			v.styles.HelpKey.Render("p"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles

	completedLabel := "show completed"
	if v.showingCompleted {
		completedLabel = "show open"
	}

	helpItems := []string{
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("s") + "      next status",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("f") + "      filter by tag",
		s.HelpKey.Render("c") + "      " + completedLabel,
		s.HelpKey.Render("p") + "      permissions",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	return styles.Modal(s.Panel.Render(content), v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and its subtasks will be removed.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return styles.Modal(content, v.width, v.height)
}

func (v *TaskListView) renderTaskView() string {
	task, ok := v.viewedTask()
	if !ok {
		return ""
	}

	s := v.styles
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 80)

	field := func(label, value string) string {
		if value == "" {
			value = s.TitleMuted.Render("—")
		}
		return s.Label.Width(14).Render(label) + value
	}

	tagStrs := make([]string, 0, len(task.Tags))
	for _, tag := range task.Tags {
		tagStrs = append(tagStrs, s.Tag.Render("#"+tag))
	}

	template := ""
	if task.TemplateID != "" {
		template = task.TemplateID
		if tmpl, ok := v.svc.Catalog().GetTemplate(task.TemplateID); ok {
			template = tmpl.Name
		}
	}

	descText := task.Description
	if descText == "" {
		descText = s.TitleMuted.Render("No description")
	}

	rows := []string{
		s.Title.MarginBottom(1).Render(task.Title),
		field("Status", s.Status(task.Status)),
		field("Priority", s.Priority(task.Priority)),
		field("Assignee", task.Assignee),
		field("Due", models.FormatDate(task.DueDate)),
		field("Tags", strings.Join(tagStrs, " ")),
		field("Template", template),
		field("Publication", task.LinkedPublicationRef),
		field("Process", task.LinkedProcessRef),
		"",
		lipgloss.NewStyle().Width(textWidth).Render(descText),
		"",
	}

	if pct, ok := task.Progress(); ok {
		pending := task.PendingRequiredCount()
		gate := s.SuccessText.Render("ready to complete")
		if pending > 0 {
			gate = s.ErrorText.Render(fmt.Sprintf("%d required pending", pending))
		}
		rows = append(rows,
			s.Label.Render("Subtasks"),
			s.ProgressBar(pct, 20)+"  "+gate,
		)
		for i, st := range task.Subtasks {
			rows = append(rows, v.renderSubtask(st, i == v.subtaskCursor))
		}
	} else {
		rows = append(rows, s.TitleMuted.Render("No subtasks"))
	}

	if v.notice != "" {
		rows = append(rows, "", s.Changed.Render(v.notice))
	}

	rows = append(rows, s.Help.Render(
		fmt.Sprintf("%s toggle subtask • %s status • %s edit • %s delete • %s back",
			s.HelpKey.Render("space"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		),
	))

	padded := lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return styles.CenterView(padded, v.width, v.height)
}

func (v *TaskListView) renderSubtask(st models.Subtask, selected bool) string {
	s := v.styles

	marker := " "
	if st.Required {
		marker = s.Required.Render("*")
	}
	line := fmt.Sprintf("%s %s %s  %s  %s",
		styles.Checkbox(st.Completed),
		marker,
		st.Title,
		s.Assignee.Render("@"+st.Assignee),
		s.TitleMuted.Render(models.FormatDate(st.DueDate)),
	)
	if selected {
		return s.ListSelected.Render(line)
	}
	return s.ListItem.Render(line)
}
