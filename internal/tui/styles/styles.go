package styles

import "github.com/charmbracelet/lipgloss"

// Styles defines the core UI styles
var (
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#4F4FB7")).
		Padding(0, 1)

	Selected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7"))

	Unselected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5A9"))

	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5F5F"))

	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#73F59F"))

	// Alert marks a status line while the filter hides entries
	Alert = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#EBCB8B"))
)

// Entry styles by kind
var (
	Parent = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#959595"))

	Folder = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#81A1C1")).
		Bold(true)

	Image = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#A3BE8C"))

	Index = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#D08770")).
		Italic(true)

	File = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#CCCCCC"))
)

// ListStyle frames the entry list
var ListStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#7B61FF"))
