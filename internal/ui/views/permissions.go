package views

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/prevtech/internal/models"
	"github.com/tgienger/prevtech/internal/permissions"
	"github.com/tgienger/prevtech/internal/ui/keys"
	"github.com/tgienger/prevtech/internal/ui/styles"
)

// recentChanges is how many audit records the view shows
const recentChanges = 8

// PermissionStore persists the grid. *db.DB implements it.
type PermissionStore interface {
	SavePermissions(m *permissions.Matrix, changes []models.PermissionChange) error
	ListPermissionChanges(limit int) ([]models.PermissionChange, error)
}

type changeItem struct {
	change models.PermissionChange
}

func (i changeItem) Title() string {
	return fmt.Sprintf("%s · %s · %s", i.change.Profile, i.change.Resource, i.change.Permission)
}
func (i changeItem) Description() string {
	return fmt.Sprintf("%s → %s  %s",
		grantLabel(i.change.OldValue),
		grantLabel(i.change.NewValue),
		i.change.ChangedAt.Local().Format("2006-01-02 15:04"),
	)
}
func (i changeItem) FilterValue() string { return i.change.Profile }

type changeDelegate struct {
	styles *styles.Styles
	width  int
}

func (d changeDelegate) Height() int                               { return 1 }
func (d changeDelegate) Spacing() int                              { return 0 }
func (d changeDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d changeDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	c, ok := item.(changeItem)
	if !ok {
		return
	}
	width := max(d.width-4, 20)
	line := c.Title() + "  " + d.styles.TitleMuted.Render(c.Description())
	fmt.Fprint(w, d.styles.ListItem.Width(width).Render(line))
}

func grantLabel(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}

// BackToTasks asks the app to return to the task board
type BackToTasks struct{}

type changesLoadedMsg struct {
	changes []models.PermissionChange
}

// PermissionsView edits the resource by profile grid one profile at a time
type PermissionsView struct {
	store   PermissionStore
	session *permissions.Session
	logger  *slog.Logger
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	profileIdx int
	row        int // resource
	col        int // action

	confirming bool
	notice     string
	err        error

	history  list.Model
	delegate *changeDelegate
}

// NewPermissionsView shows m, which edits mutate in place
func NewPermissionsView(store PermissionStore, m *permissions.Matrix, logger *slog.Logger) *PermissionsView {
	s := styles.NewStyles()
	delegate := &changeDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 80, recentChanges)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)

	return &PermissionsView{
		store:    store,
		session:  permissions.NewSession(m),
		logger:   logger,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		history:  l,
		delegate: delegate,
	}
}

func (v *PermissionsView) Init() tea.Cmd {
	return v.loadChanges
}

func (v *PermissionsView) loadChanges() tea.Msg {
	changes, err := v.store.ListPermissionChanges(recentChanges)
	if err != nil {
		return err
	}
	return changesLoadedMsg{changes: changes}
}

func (v *PermissionsView) matrix() *permissions.Matrix { return v.session.Matrix() }

func (v *PermissionsView) profile() string {
	profiles := v.matrix().Profiles
	if len(profiles) == 0 {
		return ""
	}
	return profiles[v.profileIdx]
}

func (v *PermissionsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.history.SetWidth(contentWidth)
		return v, nil

	case changesLoadedMsg:
		items := make([]list.Item, len(msg.changes))
		for i, c := range msg.changes {
			items[i] = changeItem{change: c}
		}
		v.history.SetItems(items)
		return v, nil

	case error:
		v.err = msg
		v.logger.Error("permissions view", "error", msg)
		return v, nil

	case tea.KeyMsg:
		if v.confirming {
			return v.updateConfirm(msg)
		}
		return v.updateGrid(msg)
	}
	return v, nil
}

func (v *PermissionsView) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := v.matrix()

	switch {
	case key.Matches(msg, v.keys.Back):
		if v.session.Editing() {
			v.session.Cancel()
			v.notice = "Edits discarded"
			return v, nil
		}
		return v, func() tea.Msg { return BackToTasks{} }

	case key.Matches(msg, v.keys.Quit):
		if v.session.Editing() {
			return v, nil
		}
		return v, tea.Quit

	case key.Matches(msg, v.keys.Tab):
		v.profileIdx = (v.profileIdx + 1) % len(m.Profiles)
		return v, nil

	case msg.String() == "shift+tab":
		v.profileIdx = (v.profileIdx + len(m.Profiles) - 1) % len(m.Profiles)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		v.row = clamp(v.row-1, 0, len(m.Resources)-1)
		return v, nil

	case key.Matches(msg, v.keys.Down):
		v.row = clamp(v.row+1, 0, len(m.Resources)-1)
		return v, nil

	case key.Matches(msg, v.keys.Left):
		v.col = clamp(v.col-1, 0, len(permissions.Actions)-1)
		return v, nil

	case key.Matches(msg, v.keys.Right):
		v.col = clamp(v.col+1, 0, len(permissions.Actions)-1)
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		v.session.Begin()
		v.notice = ""
		return v, nil

	case key.Matches(msg, v.keys.Toggle), key.Matches(msg, v.keys.Enter):
		if !v.session.Editing() {
			v.notice = "Press e to edit"
			return v, nil
		}
		resource := m.Resources[v.row]
		action := permissions.Actions[v.col]
		if !v.session.Toggle(resource, v.profile(), action) {
			v.notice = fmt.Sprintf("%s %s is locked", resource, action)
		} else {
			v.notice = ""
		}
		return v, nil

	case key.Matches(msg, v.keys.Save):
		if !v.session.Editing() {
			return v, nil
		}
		if len(v.session.Changes()) == 0 {
			v.session.Confirm()
			v.notice = "No changes"
			return v, nil
		}
		v.confirming = true
		return v, nil
	}
	return v, nil
}

func (v *PermissionsView) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirming = false
		changes := v.session.Changes()
		if err := v.store.SavePermissions(v.matrix(), changes); err != nil {
			// stay in edit mode so nothing is lost
			v.err = err
			return v, nil
		}
		v.session.Confirm()
		v.err = nil
		v.notice = fmt.Sprintf("%d change(s) saved", len(changes))
		v.logger.Info("permissions saved", "changes", len(changes))
		return v, v.loadChanges
	case "n", "N", "esc":
		v.confirming = false
		return v, nil
	}
	return v, nil
}

func (v *PermissionsView) View() string {
	if v.confirming {
		return v.renderConfirm()
	}

	s := v.styles
	var b strings.Builder

	title := "Permissões"
	if v.session.Editing() {
		title += "  " + s.Changed.Render("(editing)")
	}
	b.WriteString(s.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(v.renderProfiles())
	b.WriteString("\n\n")
	b.WriteString(v.renderGrid())
	b.WriteString("\n")

	if v.err != nil {
		b.WriteString(s.ErrorText.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	}
	if v.notice != "" {
		b.WriteString(s.Changed.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Label.Render("Recent changes"))
	b.WriteString("\n")
	if len(v.history.Items()) == 0 {
		b.WriteString(s.TitleMuted.Render("  none yet"))
	} else {
		b.WriteString(v.history.View())
	}
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *PermissionsView) renderProfiles() string {
	s := v.styles
	var tabs []string
	for i, p := range v.matrix().Profiles {
		if i == v.profileIdx {
			tabs = append(tabs, s.TabActive.Render(p))
		} else {
			tabs = append(tabs, s.Tab.Render(p))
		}
	}
	return strings.Join(tabs, " ")
}

func (v *PermissionsView) renderGrid() string {
	s := v.styles
	m := v.matrix()
	profile := v.profile()

	changed := map[string]bool{}
	for _, c := range v.session.Changes() {
		changed[c.Resource+"/"+c.Profile+"/"+c.Permission] = true
	}

	nameWidth := 16
	for _, r := range m.Resources {
		nameWidth = max(nameWidth, lipgloss.Width(r)+2)
	}
	nameStyle := lipgloss.NewStyle().Width(nameWidth)
	cellStyle := lipgloss.NewStyle().Width(6).Align(lipgloss.Center)

	header := []string{nameStyle.Render("")}
	for _, a := range permissions.Actions {
		header = append(header, cellStyle.Inherit(s.Label).Render(a.Short()))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	for r, resource := range m.Resources {
		line := []string{nameStyle.Render(resource)}
		for c, action := range permissions.Actions {
			var mark string
			switch {
			case permissions.Locked(resource, action):
				mark = s.Locked.Render("—")
			case m.Get(resource, profile, action):
				mark = s.Allowed.Render("[✓]")
			default:
				mark = s.Denied.Render("[ ]")
			}
			if changed[resource+"/"+profile+"/"+string(action)] {
				mark = s.Changed.Render("*") + mark
			}

			style := cellStyle
			if r == v.row && c == v.col {
				style = style.Background(styles.Current.Selection)
			}
			line = append(line, style.Render(mark))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}

	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *PermissionsView) renderHelp() string {
	s := v.styles
	if v.session.Editing() {
		return s.Help.Render(fmt.Sprintf("%s toggle • %s save • %s discard • %s profile",
			s.HelpKey.Render("space"),
			s.HelpKey.Render("ctrl+s"),
			s.HelpKey.Render("esc"),
			s.HelpKey.Render("tab"),
		))
	}
	return s.Help.Render(fmt.Sprintf("%s edit • %s profile • %s move • %s tasks • %s quit",
		s.HelpKey.Render("e"),
		s.HelpKey.Render("tab"),
		s.HelpKey.Render("←↑↓→"),
		s.HelpKey.Render("esc"),
		s.HelpKey.Render("q"),
	))
}

func (v *PermissionsView) renderConfirm() string {
	s := v.styles

	lines := []string{
		s.Title.Render("Save permission changes?"),
		"",
	}
	for _, c := range v.session.Changes() {
		lines = append(lines, fmt.Sprintf("%s · %s · %s  %s → %s",
			c.Profile, c.Resource, c.Permission, grantLabel(c.OldValue), grantLabel(c.NewValue)))
	}
	lines = append(lines, "",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Save "),
			"  ",
			s.Button.Render(" N - Back "),
		),
	)
	return styles.Modal(s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)), v.width, v.height)
}
