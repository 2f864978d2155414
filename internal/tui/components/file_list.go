package components

import (
	"fmt"
	"strings"

	"xpick/internal/browser"
	"xpick/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// FileList renders the visible entries of a directory model around a cursor
type FileList struct {
	items  []browser.Item
	cursor int
	height int
}

func NewFileList() *FileList {
	return &FileList{height: 20}
}

// SetItems replaces the entries and keeps the cursor in range
func (fl *FileList) SetItems(items []browser.Item) {
	fl.items = items
	fl.clamp()
}

// SetHeight sets the number of rows shown
func (fl *FileList) SetHeight(h int) {
	if h < 1 {
		h = 1
	}
	fl.height = h
}

func (fl *FileList) MoveCursor(delta int) {
	fl.cursor += delta
	fl.clamp()
}

func (fl *FileList) SetCursor(i int) {
	fl.cursor = i
	fl.clamp()
}

func (fl *FileList) Cursor() int {
	return fl.cursor
}

func (fl *FileList) Len() int {
	return len(fl.items)
}

// Current returns the entry under the cursor
func (fl *FileList) Current() (browser.Item, bool) {
	if fl.cursor >= 0 && fl.cursor < len(fl.items) {
		return fl.items[fl.cursor], true
	}
	return browser.Item{}, false
}

func (fl *FileList) clamp() {
	if fl.cursor >= len(fl.items) {
		fl.cursor = len(fl.items) - 1
	}
	if fl.cursor < 0 {
		fl.cursor = 0
	}
}

// Icon returns the glyph shown before an entry of kind k
func Icon(k browser.Kind) string {
	switch k {
	case browser.Parent:
		return "↑"
	case browser.Folder:
		return "▸"
	case browser.Image:
		return "▣"
	case browser.Index:
		return "≡"
	default:
		return "·"
	}
}

// KindStyle returns the style entries of kind k are drawn with
func KindStyle(k browser.Kind) lipgloss.Style {
	switch k {
	case browser.Parent:
		return styles.Parent
	case browser.Folder:
		return styles.Folder
	case browser.Image:
		return styles.Image
	case browser.Index:
		return styles.Index
	default:
		return styles.File
	}
}

func (fl *FileList) View() string {
	if len(fl.items) == 0 {
		return "No entries\n"
	}

	// Scroll so the cursor stays visible
	start := 0
	if fl.cursor >= fl.height {
		start = fl.cursor - fl.height + 1
	}
	end := start + fl.height
	if end > len(fl.items) {
		end = len(fl.items)
	}

	var s strings.Builder
	for i := start; i < end; i++ {
		it := fl.items[i]
		name := it.Name
		if it.Kind == browser.Folder {
			name += "/"
		}
		line := fmt.Sprintf("%s %s", Icon(it.Kind), name)

		cursor := "  "
		style := KindStyle(it.Kind)
		if i == fl.cursor {
			cursor = "> "
			style = styles.Selected
		}
		s.WriteString(cursor + style.Render(line) + "\n")
	}
	return s.String()
}
