package components

import (
	"xpick/internal/browser"
	"xpick/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AlertMarker prefixes the status while the filter hides entries
const AlertMarker = "⚠"

// StatusBar shows the filter status, a message and a spinner while a
// background job runs
type StatusBar struct {
	status  browser.Status
	text    string
	isError bool
	style   lipgloss.Style
	spinner spinner.Model
	loading bool
}

func NewStatusBar() *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Help

	return &StatusBar{
		style:   styles.Help,
		spinner: s,
	}
}

// StatusChanged implements browser.StatusListener
func (s *StatusBar) StatusChanged(st browser.Status) {
	s.status = st
}

// Status returns the last filter status received
func (s *StatusBar) Status() browser.Status {
	return s.status
}

// SetLoading starts or stops the spinner. The returned command drives it.
func (s *StatusBar) SetLoading(loading bool) tea.Cmd {
	s.loading = loading
	if loading {
		return s.spinner.Tick
	}
	return nil
}

func (s *StatusBar) Loading() bool {
	return s.loading
}

// SetText sets the message shown after the filter status
func (s *StatusBar) SetText(text string) {
	s.text = text
	s.isError = false
}

// SetError shows text as an error message
func (s *StatusBar) SetError(text string) {
	s.text = text
	s.isError = true
}

func (s *StatusBar) Text() string {
	return s.text
}

func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if s.loading {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	}
	return nil
}

func (s *StatusBar) View() string {
	line := s.style.Render(s.status.String())
	if s.status.Filtering() {
		line = styles.Alert.Render(AlertMarker+" ") + styles.Alert.Render(s.status.String())
	}

	msg := s.text
	if s.loading {
		msg = s.spinner.View() + " " + msg
	}
	if msg == "" {
		return line
	}
	if s.isError {
		return line + "  " + styles.Error.Render(msg)
	}
	return line + "  " + s.style.Render(msg)
}
