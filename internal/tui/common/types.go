package common

import "xpick/internal/browser"

type Mode int

const (
	Normal Mode = iota
	// Filter routes keystrokes to the filter input
	Filter
	// Params routes keystrokes to the parameter editor
	Params
	// Output scrolls the last autopick run's output
	Output
)

func (m Mode) String() string {
	switch m {
	case Filter:
		return "FILTER"
	case Params:
		return "PARAMS"
	case Output:
		return "OUTPUT"
	default:
		return "NORMAL"
	}
}

// ModelReader defines the interface that views use to read model state
type ModelReader interface {
	CurrentDir() string
	Items() []browser.Item
	Cursor() int
	ListHeight() int
	Mode() Mode
	ShowHelp() bool
	FilterView() string
	StatusView() string
	ParamsView() string
	OutputView() string
}
