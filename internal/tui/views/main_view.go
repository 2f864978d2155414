package views

import (
	"strings"

	"xpick/internal/tui/common"
	"xpick/internal/tui/components"
	"xpick/internal/tui/styles"
)

func RenderMainView(m common.ModelReader) string {
	var sb strings.Builder

	sb.WriteString(renderBanner(m.CurrentDir()))
	sb.WriteString("\n")
	sb.WriteString(m.FilterView())
	sb.WriteString("\n")

	switch m.Mode() {
	case common.Params:
		sb.WriteString(styles.ListStyle.Render(strings.TrimSuffix(m.ParamsView(), "\n")))
	case common.Output:
		sb.WriteString(styles.ListStyle.Render(strings.TrimSuffix(m.OutputView(), "\n")))
	default:
		fileList := components.NewFileList()
		fileList.SetHeight(m.ListHeight())
		fileList.SetItems(m.Items())
		fileList.SetCursor(m.Cursor())
		sb.WriteString(styles.ListStyle.Render(strings.TrimSuffix(fileList.View(), "\n")))
	}
	sb.WriteString("\n")

	sb.WriteString(m.StatusView())
	sb.WriteString("\n")

	if m.ShowHelp() {
		sb.WriteString("\n" + RenderHelp())
	}
	sb.WriteString("\n" + RenderKeyCommands(m.Mode()))

	return styles.App.Render(sb.String())
}

func RenderKeyCommands(mode common.Mode) string {
	switch mode {
	case common.Filter:
		return styles.Help.Render("[Enter/Esc] Done  type to filter, * and ? are wildcards")
	case common.Params:
		return styles.Help.Render("[Tab/↑/↓] Next field  [Enter] Save  [Esc] Cancel")
	case common.Output:
		return styles.Help.Render("[↑/↓/PgUp/PgDn] Scroll  [Esc/o] Back")
	}
	return styles.Help.Render("[↑/k] Up  [↓/j] Down  [Enter] Open  [Backspace] Parent  [/] Filter  [r] Refresh  [p] Autopick  [e] Parameters  [o] Output  [q] Quit  [?] Help")
}

func RenderHelp() string {
	return styles.Help.Render(`Filter: space-separated patterns, an entry is shown when any pattern
matches its whole name. * matches any run of characters, ? exactly one.
Enter on a folder opens it; on any other entry it is chosen and the
picker exits. p runs the configured autopick program on the selected image,
e edits the classifier parameters used by later runs and o shows the
output of the last run.`)
}

func renderBanner(dir string) string {
	return styles.Title.Render("xpick") + " " + dir
}
