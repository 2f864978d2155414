//go:build nogui

package gui

import (
	"context"

	"xpick/internal/browser"
	"xpick/internal/errors"
	"xpick/internal/picker"
	"xpick/internal/watch"
)

// Options mirrors the GUI build so callers compile either way
type Options struct {
	Classifier *picker.Classifier
	Watcher    *watch.Watcher
	OnChoose   func(path string)
}

// Run is a stub for builds with GUI disabled
func Run(ctx context.Context, b *browser.Model, opts Options) (string, error) {
	return "", errors.New("GUI not available in this build, use the browse command")
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return false
}
