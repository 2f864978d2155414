package messages

import (
	"xpick/internal/picker"
	"xpick/internal/watch"
)

type ErrorMsg struct {
	Err error
}

// DirectoryChangeMsg reports a filesystem change in the displayed directory
type DirectoryChangeMsg struct {
	Change watch.Change
	// Closed is set when the watcher stopped delivering events
	Closed bool
}

// AutopickCompleteMsg carries the outcome of a background autopick run
type AutopickCompleteMsg struct {
	Result picker.AutopickResult
}

// ParamsUpdateMsg ends a parameter editing session
type ParamsUpdateMsg struct {
	Values map[string]string
	// Cancelled is set when the edits should be discarded
	Cancelled bool
}
