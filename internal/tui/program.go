package tui

import (
	"context"
	"fmt"

	"xpick/internal/browser"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the terminal picker until the user chooses an entry or quits.
// It returns the chosen path, or "" when nothing was chosen.
func Run(ctx context.Context, b *browser.Model, opts Options) (string, error) {
	m := New(ctx, b, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("terminal picker failed: %w", err)
	}
	if fm, ok := final.(*Model); ok {
		return fm.Chosen(), nil
	}
	return "", nil
}
