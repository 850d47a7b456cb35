package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings shared by every view
type KeyMap struct {
	Quit          key.Binding
	Back          key.Binding
	Tab           key.Binding
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	Enter         key.Binding
	Toggle        key.Binding
	Save          key.Binding
	Edit          key.Binding
	New           key.Binding
	Delete        key.Binding
	Search        key.Binding
	Filter        key.Binding
	Status        key.Binding
	ShowCompleted key.Binding
	Template      key.Binding
	Permissions   key.Binding
	Help          key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Tab:           key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:          key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:         key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Enter:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "select")),
		Toggle:        key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Save:          key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Edit:          key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		New:           key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Delete:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:        key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Status:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		ShowCompleted: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "done")),
		Template:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "template")),
		Permissions:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "permissions")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}
