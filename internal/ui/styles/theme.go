package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/prevtech/internal/models"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// Institutional is the default theme: navy and gold of the PrevTech brand
var Institutional = Theme{
	Name: "Institutional",

	Background:    lipgloss.Color("#0f172a"),
	Foreground:    lipgloss.Color("#e2e8f0"),
	ForegroundDim: lipgloss.Color("#64748b"),

	Primary:   lipgloss.Color("#60a5fa"),
	Secondary: lipgloss.Color("#fbbf24"),
	Accent:    lipgloss.Color("#38bdf8"),

	Success: lipgloss.Color("#4ade80"),
	Warning: lipgloss.Color("#facc15"),
	Error:   lipgloss.Color("#f87171"),

	Border:      lipgloss.Color("#334155"),
	BorderFocus: lipgloss.Color("#60a5fa"),
	Selection:   lipgloss.Color("#1e3a8a"),
}

// Current holds the active theme
var Current = Institutional

// MaxWidth caps the content width; the permission grid needs more than 80
const MaxWidth = 96

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView centers content horizontally if the terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Modal centers a dialog in the content area
func Modal(content string, terminalWidth, terminalHeight int) string {
	centered := lipgloss.Place(ContentWidth(terminalWidth), terminalHeight,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return CenterView(centered, terminalWidth, terminalHeight)
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Label      lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Panel lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	Tag         lipgloss.Style
	Assignee    lipgloss.Style
	Required    lipgloss.Style
	Locked      lipgloss.Style
	Allowed     lipgloss.Style
	Denied      lipgloss.Style
	Changed     lipgloss.Style
	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Help    lipgloss.Style
	HelpKey lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border)

	return &Styles{
		Title:      lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		TitleMuted: lipgloss.NewStyle().Foreground(t.ForegroundDim),
		Label:      lipgloss.NewStyle().Foreground(t.ForegroundDim).Bold(true),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),
		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		Panel: border.Padding(0, 1),

		Button: border.
			Foreground(t.Foreground).
			Padding(0, 2),
		ButtonFocused: border.
			Foreground(t.Primary).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),
		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Tab:         lipgloss.NewStyle().Foreground(t.ForegroundDim).Padding(0, 1),
		TabActive:   lipgloss.NewStyle().Foreground(t.Background).Background(t.Secondary).Padding(0, 1).Bold(true),
		Tag:         lipgloss.NewStyle().Foreground(t.Secondary),
		Assignee:    lipgloss.NewStyle().Foreground(t.Accent),
		Required:    lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		Locked:      lipgloss.NewStyle().Foreground(t.Border),
		Allowed:     lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Denied:      lipgloss.NewStyle().Foreground(t.ForegroundDim),
		Changed:     lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		ErrorText:   lipgloss.NewStyle().Foreground(t.Error),
		SuccessText: lipgloss.NewStyle().Foreground(t.Success),

		Input: border.
			Foreground(t.Foreground).
			Padding(0, 1),
		InputFocused: border.
			Foreground(t.Foreground).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Help:    lipgloss.NewStyle().Foreground(t.ForegroundDim).Padding(1, 2),
		HelpKey: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
	}
}

// Status renders a colored status badge
func (s *Styles) Status(st models.Status) string {
	c := Current.ForegroundDim
	switch st {
	case models.StatusInProgress:
		c = Current.Warning
	case models.StatusDone:
		c = Current.Success
	}
	return lipgloss.NewStyle().Foreground(c).Render("● " + st.Label())
}

// Priority renders a priority marker
func (s *Styles) Priority(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return lipgloss.NewStyle().Foreground(Current.Error).Bold(true).Render("▲ alta")
	case models.PriorityMedium:
		return lipgloss.NewStyle().Foreground(Current.Warning).Render("■ média")
	default:
		return lipgloss.NewStyle().Foreground(Current.ForegroundDim).Render("▼ baixa")
	}
}

// ProgressBar draws pct (0-100) in width cells followed by the percentage
func (s *Styles) ProgressBar(pct float64, width int) string {
	if width < 1 {
		width = 1
	}
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(filled, width))
	bar := lipgloss.NewStyle().Foreground(Current.Success).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(Current.Border).Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, pct)
}

// Checkbox renders a [x] / [ ] marker
func Checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}
