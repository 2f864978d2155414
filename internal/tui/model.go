package tui

import (
	"context"
	"fmt"
	"path/filepath"

	"xpick/internal/browser"
	log "xpick/internal/log"
	"xpick/internal/picker"
	"xpick/internal/tui/common"
	"xpick/internal/tui/components"
	"xpick/internal/tui/messages"
	"xpick/internal/tui/views"
	"xpick/internal/watch"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Options wires optional collaborators into the picker
type Options struct {
	// Classifier enables the autopick key
	Classifier *picker.Classifier
	// Watcher refreshes the listing on filesystem changes
	Watcher *watch.Watcher
}

type Model struct {
	ctx     context.Context
	browser *browser.Model
	filter  textinput.Model
	list    *components.FileList
	status  *components.StatusBar
	editor  *components.ParamEditor
	output  *components.OutputPane

	mode     common.Mode
	showHelp bool
	height   int

	classifier *picker.Classifier
	watcher    *watch.Watcher

	chosen string
}

// inputSource exposes the filter input as a browser.TextSource
type inputSource struct {
	input *textinput.Model
}

func (s inputSource) Text() (string, error) {
	return s.input.Value(), nil
}

// New builds the terminal picker around a directory model
func New(ctx context.Context, b *browser.Model, opts Options) *Model {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Placeholder = "*.mrc *.spi"
	ti.SetValue(b.FilterText())

	m := &Model{
		ctx:        ctx,
		browser:    b,
		filter:     ti,
		list:       components.NewFileList(),
		status:     components.NewStatusBar(),
		output:     components.NewOutputPane(),
		mode:       common.Normal,
		height:     20,
		classifier: opts.Classifier,
		watcher:    opts.Watcher,
	}
	m.list.SetHeight(m.height)
	m.output.SetSize(72, m.height)
	m.list.SetItems(b.Items())

	b.AddListener(browser.ListDataFunc(func(browser.RangeEvent) {
		m.list.SetItems(m.browser.Items())
	}))
	b.SetStatusListener(m.status)
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	if err := m.watcher.SetDirectory(m.browser.Dir()); err != nil {
		log.LogWithError(err).Warn("cannot watch directory")
	}
	return waitForChange(m.watcher)
}

func waitForChange(w *watch.Watcher) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-w.Events()
		return messages.DirectoryChangeMsg{Change: change, Closed: !ok}
	}
}

// View implements tea.Model
func (m *Model) View() string {
	return views.RenderMainView(m)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-12, 3)
		m.list.SetHeight(m.height)
		m.output.SetSize(max(msg.Width-8, 20), m.height)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case common.Filter:
			return m.handleFilterKeys(msg)
		case common.Params:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, m.editor.Update(msg)
		case common.Output:
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "o", "q":
				m.mode = common.Normal
				return m, nil
			}
			return m, m.output.Update(msg)
		}
		return m.handleNormalKeys(msg)

	case messages.DirectoryChangeMsg:
		if msg.Closed || m.watcher == nil {
			return m, nil
		}
		if filepath.Dir(msg.Change.Path) == m.browser.Dir() {
			if err := m.browser.Refresh(); err != nil {
				m.status.SetError(err.Error())
			}
		}
		return m, waitForChange(m.watcher)

	case messages.AutopickCompleteMsg:
		m.status.SetLoading(false)
		m.output.SetResult(msg.Result)
		name := msg.Result.Micrograph.Name
		if err := msg.Result.Err(); err != nil {
			m.status.SetError(fmt.Sprintf("autopick %s failed: %v", name, err))
		} else {
			m.status.SetText("autopick " + name + " done")
		}
		return m, nil

	case messages.ParamsUpdateMsg:
		m.mode = common.Normal
		m.editor = nil
		if msg.Cancelled || m.classifier == nil {
			m.status.SetText("parameters unchanged")
			return m, nil
		}
		for name, value := range msg.Values {
			if err := m.classifier.SetParameter(name, value); err != nil {
				m.status.SetError(err.Error())
				return m, nil
			}
		}
		m.status.SetText("parameters updated")
		return m, nil

	case messages.ErrorMsg:
		m.status.SetError(msg.Err.Error())
		return m, nil

	case spinner.TickMsg:
		return m, m.status.Update(msg)
	}
	return m, nil
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.mode = common.Normal
		m.filter.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.browser.UpdateFilterFrom(inputSource{input: &m.filter})
	return m, cmd
}

func (m *Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		m.list.MoveCursor(1)
	case "k", "up":
		m.list.MoveCursor(-1)
	case "g", "home":
		m.list.SetCursor(0)
	case "G", "end":
		m.list.SetCursor(m.list.Len() - 1)
	case "enter", "l", "right":
		return m.openCurrent()
	case "backspace", "h", "left":
		m.navigated(m.browser.GoParent())
	case "/":
		m.mode = common.Filter
		return m, m.filter.Focus()
	case "esc":
		if m.browser.FilterText() != "" {
			m.filter.SetValue("")
			m.browser.UpdateFilterFrom(inputSource{input: &m.filter})
		}
	case "r":
		m.navigated(m.browser.Refresh())
	case "p":
		return m, m.autopickCurrent()
	case "e":
		return m, m.editParams()
	case "o":
		if !m.output.HasResult() {
			m.status.SetText("no autopick run yet")
			return m, nil
		}
		m.mode = common.Output
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) openCurrent() (tea.Model, tea.Cmd) {
	item, ok := m.list.Current()
	if !ok {
		return m, nil
	}
	switch item.Kind {
	case browser.Parent, browser.Folder:
		m.navigated(m.browser.Open(m.list.Cursor()))
		return m, nil
	default:
		m.chosen = item.Path
		return m, tea.Quit
	}
}

// navigated reports a navigation error or resets the view for the new
// directory
func (m *Model) navigated(err error) {
	if err != nil {
		log.LogWithError(err).Debug("navigation failed")
		m.status.SetError(err.Error())
		return
	}
	m.status.SetText("")
	m.list.SetCursor(0)
	if m.watcher != nil {
		if err := m.watcher.SetDirectory(m.browser.Dir()); err != nil {
			log.LogWithError(err).Warn("cannot watch directory")
		}
	}
}

func (m *Model) autopickCurrent() tea.Cmd {
	item, ok := m.list.Current()
	if !ok || item.Kind != browser.Image {
		m.status.SetError("select an image to autopick")
		return nil
	}
	if m.classifier == nil {
		m.status.SetError("no classifier configured")
		return nil
	}
	if m.status.Loading() {
		return nil
	}

	mic := picker.MicrographFromPath(item.Path)
	m.status.SetText("autopicking " + filepath.Base(item.Path))
	classifier, ctx := m.classifier, m.ctx
	return tea.Batch(m.status.SetLoading(true), func() tea.Msg {
		return messages.AutopickCompleteMsg{Result: classifier.Autopick(ctx, mic)}
	})
}

func (m *Model) editParams() tea.Cmd {
	if m.classifier == nil {
		m.status.SetError("no classifier configured")
		return nil
	}
	m.editor = components.NewParamEditor(m.classifier.Parameters())
	m.mode = common.Params
	return textinput.Blink
}

// Chosen returns the path picked with Enter, or "" if the user quit
func (m *Model) Chosen() string {
	return m.chosen
}

// Getters used by the views

func (m *Model) CurrentDir() string    { return m.browser.Dir() }
func (m *Model) Items() []browser.Item { return m.browser.Items() }
func (m *Model) Cursor() int           { return m.list.Cursor() }
func (m *Model) ListHeight() int       { return m.height }
func (m *Model) Mode() common.Mode     { return m.mode }
func (m *Model) ShowHelp() bool        { return m.showHelp }
func (m *Model) FilterView() string    { return m.filter.View() }
func (m *Model) StatusView() string    { return m.status.View() }

func (m *Model) OutputView() string { return m.output.View() }

func (m *Model) ParamsView() string {
	if m.editor == nil {
		return ""
	}
	return m.editor.View()
}
