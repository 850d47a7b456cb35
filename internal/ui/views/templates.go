package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/prevtech/internal/models"
	"github.com/tgienger/prevtech/internal/ui/keys"
	"github.com/tgienger/prevtech/internal/ui/styles"
	"github.com/tgienger/prevtech/internal/workflow"
)

type templateItem struct {
	template models.WorkflowTemplate
}

func (i templateItem) Title() string { return i.template.Name }
func (i templateItem) Description() string {
	required := 0
	for _, st := range i.template.Subtasks {
		if st.Required {
			required++
		}
	}
	return fmt.Sprintf("%s · %d subtasks (%d required)", i.template.Category, len(i.template.Subtasks), required)
}
func (i templateItem) FilterValue() string { return i.template.Name }

type templateDelegate struct {
	styles *styles.Styles
	width  int
}

func (d templateDelegate) Height() int                               { return 2 }
func (d templateDelegate) Spacing() int                              { return 0 }
func (d templateDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d templateDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	t, ok := item.(templateItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)

	titleStyle := d.styles.ListItem.Width(width)
	descStyle := d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	if index == m.Index() {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(t.Title()), descStyle.Render(t.Description()))
}

// TemplatePicker is the template section of the new task form. It renders
// and drives a workflow.Selection against the draft task.
type TemplatePicker struct {
	source    workflow.TemplateSource
	selection *workflow.Selection
	list      list.Model
	delegate  *templateDelegate
	styles    *styles.Styles
	keys      keys.KeyMap

	categoryIdx int
	cursor      int // subtask cursor while bound
}

func NewTemplatePicker(source workflow.TemplateSource, s *styles.Styles) *TemplatePicker {
	delegate := &templateDelegate{styles: s, width: 60}

	l := list.New([]list.Item{}, delegate, 60, 8)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(true)

	return &TemplatePicker{
		source:    source,
		selection: workflow.NewSelection(source),
		list:      l,
		delegate:  delegate,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
	}
}

func (p *TemplatePicker) State() workflow.SelectionState { return p.selection.State() }

// Browsing reports whether the picker captures navigation keys
func (p *TemplatePicker) Browsing() bool { return p.selection.State() == workflow.StateBrowsing }

func (p *TemplatePicker) SetWidth(width int) {
	p.delegate.width = width
	p.list.SetWidth(width)
}

// Reset closes the flow for a new draft
func (p *TemplatePicker) Reset(task *models.Task) {
	p.selection.Cancel()
	p.selection.Clear(task)
	p.categoryIdx = 0
	p.cursor = 0
}

func (p *TemplatePicker) open() {
	p.selection.Open()
	p.categoryIdx = 0
	p.refresh()
}

func (p *TemplatePicker) refresh() {
	templates := p.selection.Templates()
	items := make([]list.Item, len(templates))
	for i, t := range templates {
		items[i] = templateItem{template: t}
	}
	p.list.SetItems(items)
	p.list.Select(0)
}

// Update handles a key while the template section has focus and reports
// whether the key was consumed
func (p *TemplatePicker) Update(msg tea.KeyMsg, task *models.Task) (bool, tea.Cmd) {
	switch p.selection.State() {
	case workflow.StateClosed:
		if key.Matches(msg, p.keys.Enter) || key.Matches(msg, p.keys.Template) {
			p.open()
			return true, nil
		}

	case workflow.StateBrowsing:
		categories := p.selection.Categories()
		switch {
		case key.Matches(msg, p.keys.Back):
			p.selection.Cancel()
			return true, nil
		case key.Matches(msg, p.keys.Left):
			p.categoryIdx = (p.categoryIdx + len(categories) - 1) % len(categories)
			p.selection.FilterCategory(categories[p.categoryIdx])
			p.refresh()
			return true, nil
		case key.Matches(msg, p.keys.Right):
			p.categoryIdx = (p.categoryIdx + 1) % len(categories)
			p.selection.FilterCategory(categories[p.categoryIdx])
			p.refresh()
			return true, nil
		case key.Matches(msg, p.keys.Enter):
			if item, ok := p.list.SelectedItem().(templateItem); ok {
				if err := p.selection.Select(task, item.template.ID); err == nil {
					p.cursor = 0
				}
			}
			return true, nil
		case key.Matches(msg, p.keys.Up), key.Matches(msg, p.keys.Down):
			var cmd tea.Cmd
			p.list, cmd = p.list.Update(msg)
			return true, cmd
		}
		// swallow everything else so typing does not leak into inputs
		return true, nil

	case workflow.StateBound:
		switch {
		case key.Matches(msg, p.keys.Toggle):
			p.selection.ToggleExpanded()
			return true, nil
		case key.Matches(msg, p.keys.Up):
			if p.selection.Expanded() && p.cursor > 0 {
				p.cursor--
				return true, nil
			}
		case key.Matches(msg, p.keys.Down):
			if p.selection.Expanded() && p.cursor < len(task.Subtasks)-1 {
				p.cursor++
				return true, nil
			}
		case msg.String() == "x":
			if p.selection.Expanded() && p.cursor < len(task.Subtasks) {
				p.selection.RemoveSubtask(task, task.Subtasks[p.cursor].ID)
				p.cursor = clamp(p.cursor, 0, max(len(task.Subtasks)-1, 0))
			}
			return true, nil
		case msg.String() == "r":
			p.selection.Clear(task)
			p.cursor = 0
			return true, nil
		}
	}
	return false, nil
}

// View renders the section; focused highlights the subtask cursor
func (p *TemplatePicker) View(task *models.Task, focused bool) string {
	s := p.styles

	switch p.selection.State() {
	case workflow.StateBrowsing:
		return lipgloss.JoinVertical(lipgloss.Left,
			p.renderCategories(),
			p.list.View(),
			s.TitleMuted.Render("←→: category • ↑↓: move • ↵: use template • Esc: cancel"),
		)

	case workflow.StateBound:
		name := task.TemplateID
		if tmpl, ok := p.source.GetTemplate(task.TemplateID); ok {
			name = tmpl.Name
		}
		header := fmt.Sprintf("%s  %s",
			s.Tag.Render("⚙ "+name),
			s.TitleMuted.Render(fmt.Sprintf("%d subtasks", len(task.Subtasks))),
		)
		if !p.selection.Expanded() {
			return lipgloss.JoinVertical(lipgloss.Left,
				header,
				s.TitleMuted.Render("Space: expand • r: remove template"),
			)
		}
		lines := []string{header}
		for i, st := range task.Subtasks {
			lines = append(lines, p.renderSubtaskLine(st, focused && i == p.cursor))
		}
		lines = append(lines, s.TitleMuted.Render("↑↓: move • x: remove subtask • r: remove template • Space: collapse"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	return s.TitleMuted.Render("No template • ↵/a: add template")
}

func (p *TemplatePicker) renderCategories() string {
	s := p.styles
	var tabs []string
	for i, c := range p.selection.Categories() {
		if i == p.categoryIdx {
			tabs = append(tabs, s.TabActive.Render(c))
		} else {
			tabs = append(tabs, s.Tab.Render(c))
		}
	}
	return strings.Join(tabs, " ")
}

func (p *TemplatePicker) renderSubtaskLine(st models.Subtask, selected bool) string {
	s := p.styles

	due := "sem data"
	if st.DueDate != nil {
		due = models.FormatDate(st.DueDate)
	}
	marker := " "
	if st.Required {
		marker = s.Required.Render("*")
	}
	line := fmt.Sprintf("%s %s  %s  %s",
		marker,
		st.Title,
		s.Assignee.Render("@"+st.Assignee),
		s.TitleMuted.Render(fmt.Sprintf("%s (D-%d)", due, st.DueOffset)),
	)
	if selected {
		return s.ListSelected.Render(line)
	}
	return s.ListItem.Render(line)
}
