package components

import (
	"fmt"
	"strings"
	"time"

	"xpick/internal/picker"
	"xpick/internal/tui/styles"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// OutputPane shows the commands and captured output of the last autopick
// run in a scrollable viewport
type OutputPane struct {
	viewport viewport.Model
	result   *picker.AutopickResult
}

func NewOutputPane() *OutputPane {
	return &OutputPane{viewport: viewport.New(80, 10)}
}

func (op *OutputPane) SetSize(width, height int) {
	op.viewport.Width = width
	op.viewport.Height = height
}

// SetResult replaces the run shown and scrolls to its top
func (op *OutputPane) SetResult(res picker.AutopickResult) {
	op.result = &res
	op.viewport.SetContent(renderResult(res))
	op.viewport.GotoTop()
}

// HasResult reports whether any run finished yet
func (op *OutputPane) HasResult() bool {
	return op.result != nil
}

func (op *OutputPane) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	op.viewport, cmd = op.viewport.Update(msg)
	return cmd
}

func (op *OutputPane) View() string {
	if op.result == nil {
		return styles.Unselected.Render("No autopick run yet.")
	}
	return op.viewport.View()
}

func renderResult(res picker.AutopickResult) string {
	var s strings.Builder

	title := "autopick " + res.Micrograph.Name
	if res.OK() {
		s.WriteString(styles.Success.Render(title+" ok") + "\n")
	} else {
		s.WriteString(styles.Error.Render(fmt.Sprintf("%s failed: %v", title, res.Err())) + "\n")
	}

	for _, r := range res.Results {
		s.WriteString(styles.Help.Render(fmt.Sprintf("$ %s  (exit %d, %s)", r.Command, r.ExitStatus, r.Duration.Round(time.Millisecond))) + "\n")
		if out := strings.TrimRight(r.Output, "\n"); out != "" {
			s.WriteString(out + "\n")
		}
	}
	return s.String()
}
