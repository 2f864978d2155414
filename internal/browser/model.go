// Package browser implements the filtered directory model behind the
// picker views. The model keeps the full listing of one directory and the
// visible subset that passes the current filter, always prefixed by a
// parent-directory entry, and notifies observers after every change.
//
// The model is not safe for concurrent use; views call it from their UI
// goroutine.
package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	serr "xpick/internal/errors"
	log "xpick/internal/log"
	"xpick/internal/thumb"
)

// RangeEvent describes the index range [From, To) whose contents changed
type RangeEvent struct {
	From, To int
}

// ListDataListener observes changes to the visible list
type ListDataListener interface {
	ContentsChanged(RangeEvent)
}

// ListDataFunc adapts a function to ListDataListener
type ListDataFunc func(RangeEvent)

func (f ListDataFunc) ContentsChanged(ev RangeEvent) { f(ev) }

// Status summarizes a filter pass. Showing excludes the parent entry.
type Status struct {
	Showing int
	Total   int
}

// Filtering reports whether the filter hides any entry
func (s Status) Filtering() bool {
	return s.Showing != s.Total
}

func (s Status) String() string {
	return fmt.Sprintf("showing %d of %d", s.Showing, s.Total)
}

// StatusListener receives the status after every filter pass
type StatusListener interface {
	StatusChanged(Status)
}

// StatusFunc adapts a function to StatusListener
type StatusFunc func(Status)

func (f StatusFunc) StatusChanged(s Status) { f(s) }

// TextSource supplies filter text, typically a view's input widget
type TextSource interface {
	Text() (string, error)
}

// Option configures a Model
type Option func(*Model)

// WithThumbnails attaches a shared thumbnail cache; image and index items
// then carry a thumbnail handle.
func WithThumbnails(c *thumb.Cache) Option {
	return func(m *Model) { m.cache = c }
}

// WithShowHidden includes dot files in the listing
func WithShowHidden(show bool) Option {
	return func(m *Model) { m.showHidden = show }
}

// WithSniffing enables content sniffing for files without an image extension
func WithSniffing(sniff bool) Option {
	return func(m *Model) { m.sniff = sniff }
}

// WithFilter sets the initial filter text
func WithFilter(text string) Option {
	return func(m *Model) { m.filterText = text }
}

// Model is the filtered directory listing
type Model struct {
	dir        string
	filterText string
	filter     *Filter

	all     []Item
	visible []Item

	listeners []ListDataListener
	status    StatusListener

	cache      *thumb.Cache
	showHidden bool
	sniff      bool

	logger *log.Logger
}

// New creates a model rooted at rootDir and performs the initial build
func New(rootDir string, opts ...Option) (*Model, error) {
	m := &Model{sniff: true}
	for _, opt := range opts {
		opt(m)
	}

	filter, err := CompileFilter(m.filterText)
	if err != nil {
		return nil, err
	}
	m.filter = filter

	dir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, serr.NewFileError("invalid directory", rootDir, serr.InvalidPath, err)
	}
	m.logger = log.LogWithFields(log.F("component", "browser"))

	items, err := m.readDir(dir)
	if err != nil {
		return nil, err
	}
	m.dir = dir
	m.all = items
	m.applyFilter()
	return m, nil
}

// AddListener registers an observer of the visible list
func (m *Model) AddListener(l ListDataListener) {
	m.listeners = append(m.listeners, l)
}

// SetStatusListener installs the receiver of filter status updates and
// sends it the current status
func (m *Model) SetStatusListener(l StatusListener) {
	m.status = l
	if l != nil {
		l.StatusChanged(m.Status())
	}
}

// Dir returns the absolute path of the current directory
func (m *Model) Dir() string {
	return m.dir
}

// FilterText returns the current filter text
func (m *Model) FilterText() string {
	return m.filterText
}

// Len returns the number of visible items, including the parent entry
func (m *Model) Len() int {
	return len(m.visible)
}

// TotalLen returns the number of entries in the unfiltered listing
func (m *Model) TotalLen() int {
	return len(m.all)
}

// Status returns the current filter status
func (m *Model) Status() Status {
	return Status{Showing: len(m.visible) - 1, Total: len(m.all)}
}

// ItemAt returns the visible item at index. Index 0 is the parent entry.
func (m *Model) ItemAt(index int) (Item, bool) {
	if index < 0 || index >= len(m.visible) {
		return Item{}, false
	}
	return m.visible[index], true
}

// Items returns a copy of the visible items
func (m *Model) Items() []Item {
	out := make([]Item, len(m.visible))
	copy(out, m.visible)
	return out
}

// SetFilterText replaces the filter and recomputes the visible items. On a
// compile error the previous filter stays in effect.
func (m *Model) SetFilterText(text string) error {
	filter, err := CompileFilter(text)
	if err != nil {
		return err
	}
	m.filterText = text
	m.filter = filter
	m.applyFilter()
	return nil
}

// UpdateFilterFrom reads the filter text from src. A read failure is logged
// and the previous visible items are kept.
func (m *Model) UpdateFilterFrom(src TextSource) {
	text, err := src.Text()
	if err != nil {
		m.logger.WithError(err).Warn("cannot read filter text")
		return
	}
	if err := m.SetFilterText(text); err != nil {
		m.logger.WithError(err).Warn("cannot apply filter")
	}
}

// GoParent moves to the parent of the current directory
func (m *Model) GoParent() error {
	return m.ChangeDirectory(filepath.Dir(m.dir))
}

// Open acts on the visible item at index: the parent entry moves up, a
// folder is entered. Other kinds are not navigable and leave the model
// unchanged.
func (m *Model) Open(index int) error {
	item, ok := m.ItemAt(index)
	if !ok {
		return serr.NewFileError(fmt.Sprintf("no item at index %d", index), m.dir, serr.InvalidOperation, nil)
	}
	switch item.Kind {
	case Parent:
		return m.GoParent()
	case Folder:
		return m.ChangeDirectory(item.Path)
	default:
		return serr.NewFileError("not a directory", item.Path, serr.NotADirectory, nil)
	}
}

// ChangeDirectory rebuilds the listing for dir and re-applies the current
// filter. On failure the model keeps its previous directory and listing.
func (m *Model) ChangeDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return serr.NewFileError("invalid directory", dir, serr.InvalidPath, err)
	}
	items, err := m.readDir(abs)
	if err != nil {
		return err
	}
	m.dir = abs
	m.all = items
	m.logger.With(log.F("dir", abs), log.F("entries", len(items))).Debug("directory changed")
	m.applyFilter()
	return nil
}

// Refresh re-reads the current directory, keeping the filter text
func (m *Model) Refresh() error {
	return m.ChangeDirectory(m.dir)
}

func (m *Model) readDir(dir string) ([]Item, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serr.NewFileError("directory not found", dir, serr.FileNotFound, err)
		}
		return nil, serr.NewFileError("cannot access directory", dir, serr.FileAccessDenied, err)
	}
	if !info.IsDir() {
		return nil, serr.NewFileError("not a directory", dir, serr.NotADirectory, nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, serr.NewFileError("failed to read directory", dir, serr.FileAccessDenied, err)
	}

	// Directories first, then files, each by name
	sort.Slice(entries, func(i, j int) bool {
		di, dj := entries[i].IsDir(), entries[j].IsDir()
		if di != dj {
			return di
		}
		return entries[i].Name() < entries[j].Name()
	})

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if !m.showHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if target, err := os.Stat(path); err == nil {
				isDir = target.IsDir()
			}
		}
		items = append(items, m.newItem(path, entry.Name(), Classify(path, isDir, m.sniff)))
	}
	return items, nil
}

func (m *Model) newItem(path, name string, kind Kind) Item {
	item := Item{Path: path, Name: name, Kind: kind}
	if m.cache == nil {
		return item
	}
	switch kind {
	case Image:
		item.Thumb = m.cache.Handle(path)
	case Index:
		item.Thumb = m.cache.IndexHandle(path)
	}
	return item
}

func (m *Model) applyFilter() {
	visible := make([]Item, 0, len(m.all)+1)
	visible = append(visible, parentItem(m.dir))
	for _, item := range m.all {
		if m.filter.Match(item.Name) {
			visible = append(visible, item)
		}
	}
	m.visible = visible

	ev := RangeEvent{From: 0, To: len(m.visible)}
	for _, l := range m.listeners {
		l.ContentsChanged(ev)
	}
	if m.status != nil {
		m.status.StatusChanged(m.Status())
	}
}
