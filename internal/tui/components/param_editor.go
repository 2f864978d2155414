package components

import (
	"strings"

	"xpick/internal/picker"
	"xpick/internal/tui/messages"
	"xpick/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ParamEditor edits classifier parameter values, one input per parameter
type ParamEditor struct {
	params []picker.Parameter
	inputs []textinput.Model
	cursor int
}

func NewParamEditor(params []picker.Parameter) *ParamEditor {
	pe := &ParamEditor{params: params}

	for _, p := range params {
		input := textinput.New()
		input.Prompt = "> "
		input.Placeholder = p.Help
		input.SetValue(p.Value)
		input.Width = 40
		pe.inputs = append(pe.inputs, input)
	}

	if len(pe.inputs) > 0 {
		pe.inputs[0].Focus()
	}
	return pe
}

// Update moves between inputs with tab/up/down, saves with enter and
// cancels with esc
func (pe *ParamEditor) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			return pe.Save
		case "esc":
			return func() tea.Msg { return messages.ParamsUpdateMsg{Cancelled: true} }
		case "tab", "shift+tab", "up", "down":
			if len(pe.inputs) == 0 {
				return nil
			}
			s := msg.String()
			if s == "up" || s == "shift+tab" {
				pe.cursor--
			} else {
				pe.cursor++
			}

			if pe.cursor >= len(pe.inputs) {
				pe.cursor = 0
			} else if pe.cursor < 0 {
				pe.cursor = len(pe.inputs) - 1
			}

			for i := range pe.inputs {
				if i == pe.cursor {
					cmds = append(cmds, pe.inputs[i].Focus())
				} else {
					pe.inputs[i].Blur()
				}
			}
			return tea.Batch(cmds...)
		}
	}

	for i := range pe.inputs {
		var cmd tea.Cmd
		pe.inputs[i], cmd = pe.inputs[i].Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// Cursor returns the index of the focused input
func (pe *ParamEditor) Cursor() int {
	return pe.cursor
}

// Values returns the edited value of every parameter by name
func (pe *ParamEditor) Values() map[string]string {
	values := make(map[string]string, len(pe.inputs))
	for i, p := range pe.params {
		values[p.Name] = pe.inputs[i].Value()
	}
	return values
}

func (pe *ParamEditor) Save() tea.Msg {
	return messages.ParamsUpdateMsg{Values: pe.Values()}
}

func (pe *ParamEditor) View() string {
	var s strings.Builder

	s.WriteString(styles.Title.Render("Parameters") + "\n\n")
	if len(pe.params) == 0 {
		s.WriteString(styles.Unselected.Render("The classifier declares no parameters.") + "\n")
		return s.String()
	}

	for i, p := range pe.params {
		label := p.Label
		if label == "" {
			label = p.Name
		}
		if i == pe.cursor {
			s.WriteString(styles.Selected.Render(label))
		} else {
			s.WriteString(styles.Unselected.Render(label))
		}
		s.WriteString(" " + styles.Help.Render(picker.Placeholder(p.Name)) + "\n")
		s.WriteString(pe.inputs[i].View() + "\n")
	}
	return s.String()
}
