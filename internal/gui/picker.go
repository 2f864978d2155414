//go:build !nogui

package gui

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"xpick/internal/browser"
	"xpick/internal/log"
	"xpick/internal/picker"
	"xpick/internal/thumb"
	"xpick/internal/watch"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const thumbEdge = 48

// Options wires optional collaborators into the picker dialog
type Options struct {
	Classifier *picker.Classifier
	Watcher    *watch.Watcher
	// OnChoose receives the chosen path when the user confirms a file
	OnChoose func(path string)
}

// Picker is a desktop dialog over a directory model. Fyne callbacks and the
// watcher goroutine share the model, so every model call goes through mu;
// widgets read the items snapshot instead.
type Picker struct {
	ctx     context.Context
	window  fyne.Window
	opts    Options
	mu      sync.Mutex
	browser *browser.Model

	snap     sync.RWMutex
	items    []browser.Item
	status   browser.Status
	selected int

	filter     *widget.Entry
	list       *widget.List
	statusText *widget.Label
	alert      *widget.Icon
	dirLabel   *widget.Label
	preview    *canvas.Image
	detail     *widget.Label
	chooseBtn  *widget.Button
	pickBtn    *widget.Button
	content    fyne.CanvasObject
}

// entrySource exposes the filter entry as a browser.TextSource
type entrySource struct {
	entry *widget.Entry
}

func (s entrySource) Text() (string, error) {
	return s.entry.Text, nil
}

// NewPicker builds the dialog content inside window w
func NewPicker(ctx context.Context, w fyne.Window, b *browser.Model, opts Options) *Picker {
	p := &Picker{ctx: ctx, window: w, opts: opts, browser: b, selected: -1}

	b.AddListener(browser.ListDataFunc(func(browser.RangeEvent) {
		p.snap.Lock()
		p.items = b.Items()
		p.selected = -1
		p.snap.Unlock()
	}))
	b.SetStatusListener(browser.StatusFunc(func(s browser.Status) {
		p.snap.Lock()
		p.status = s
		p.snap.Unlock()
	}))
	p.items = b.Items()

	p.buildUI()
	p.refreshWidgets()
	w.SetContent(p.content)
	return p
}

func (p *Picker) buildUI() {
	p.filter = widget.NewEntry()
	p.filter.SetPlaceHolder("Filter, e.g. *.mrc *.spi")
	p.filter.SetText(p.browser.FilterText())
	p.filter.OnChanged = func(string) {
		p.withModel(func(b *browser.Model) error {
			b.UpdateFilterFrom(entrySource{entry: p.filter})
			return nil
		})
	}

	p.list = widget.NewList(
		func() int {
			p.snap.RLock()
			defer p.snap.RUnlock()
			return len(p.items)
		},
		func() fyne.CanvasObject {
			img := canvas.NewImageFromImage(nil)
			img.FillMode = canvas.ImageFillContain
			img.SetMinSize(fyne.NewSize(thumbEdge, thumbEdge))
			return container.NewHBox(container.NewStack(widget.NewIcon(theme.FileIcon()), img), widget.NewLabel(""))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			p.snap.RLock()
			if id < 0 || id >= len(p.items) {
				p.snap.RUnlock()
				return
			}
			it := p.items[id]
			p.snap.RUnlock()
			p.renderItem(it, obj.(*fyne.Container))
		},
	)
	p.list.OnSelected = p.onSelected

	p.statusText = widget.NewLabel("")
	p.alert = widget.NewIcon(theme.WarningIcon())
	p.dirLabel = widget.NewLabel("")
	p.dirLabel.Truncation = fyne.TextTruncateEllipsis

	p.preview = canvas.NewImageFromImage(nil)
	p.preview.FillMode = canvas.ImageFillContain
	p.preview.SetMinSize(fyne.NewSize(256, 256))
	p.detail = widget.NewLabel("")
	p.detail.Wrapping = fyne.TextWrapWord

	p.chooseBtn = widget.NewButtonWithIcon("Choose", theme.ConfirmIcon(), p.choose)
	p.chooseBtn.Importance = widget.HighImportance
	p.chooseBtn.Disable()
	p.pickBtn = widget.NewButtonWithIcon("Autopick", theme.MediaPlayIcon(), p.autopick)
	p.pickBtn.Disable()

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.NavigateBackIcon(), func() { p.navigate((*browser.Model).GoParent) }),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() { p.navigate((*browser.Model).Refresh) }),
	)

	top := container.NewBorder(nil, nil, toolbar, nil, p.dirLabel)
	bottom := container.NewVBox(
		p.filter,
		container.NewHBox(p.alert, p.statusText),
	)
	side := container.NewBorder(nil, container.NewHBox(p.pickBtn, p.chooseBtn), nil, nil,
		container.NewVBox(p.preview, p.detail))

	split := container.NewHSplit(p.list, side)
	split.Offset = 0.6
	p.content = container.NewBorder(top, bottom, nil, nil, split)
}

func kindIcon(k browser.Kind) fyne.Resource {
	switch k {
	case browser.Parent:
		return theme.NavigateBackIcon()
	case browser.Folder:
		return theme.FolderIcon()
	case browser.Image:
		return theme.FileImageIcon()
	case browser.Index:
		return theme.ListIcon()
	default:
		return theme.FileIcon()
	}
}

func (p *Picker) renderItem(it browser.Item, row *fyne.Container) {
	stack := row.Objects[0].(*fyne.Container)
	icon := stack.Objects[0].(*widget.Icon)
	img := stack.Objects[1].(*canvas.Image)
	label := row.Objects[1].(*widget.Label)

	label.SetText(it.Name)
	icon.SetResource(kindIcon(it.Kind))
	icon.Show()
	img.Image = nil
	img.Hide()

	if it.Thumb != nil {
		if thumbnail, err := it.Thumb.Load(); err == nil {
			img.Image = thumbnail
			img.Show()
			icon.Hide()
		} else {
			log.LogWithFields(log.F("path", it.Path)).Debugf("no thumbnail: %v", err)
		}
	}
	img.Refresh()
}

func (p *Picker) withModel(fn func(*browser.Model) error) error {
	p.mu.Lock()
	err := fn(p.browser)
	p.mu.Unlock()
	p.refreshWidgets()
	return err
}

func (p *Picker) navigate(fn func(*browser.Model) error) {
	if err := p.withModel(fn); err != nil {
		p.showError(err)
		return
	}
	if p.opts.Watcher != nil {
		if err := p.opts.Watcher.SetDirectory(p.Dir()); err != nil {
			log.LogWithError(err).Warn("cannot watch directory")
		}
	}
}

func (p *Picker) refreshWidgets() {
	p.snap.RLock()
	status := p.status
	p.snap.RUnlock()

	p.statusText.SetText(status.String())
	if status.Filtering() {
		p.alert.Show()
	} else {
		p.alert.Hide()
	}
	p.dirLabel.SetText(p.Dir())
	p.list.UnselectAll()
	p.list.Refresh()
	p.showSelection(browser.Item{}, false)
}

func (p *Picker) onSelected(id widget.ListItemID) {
	p.snap.RLock()
	if id < 0 || id >= len(p.items) {
		p.snap.RUnlock()
		return
	}
	it := p.items[id]
	p.snap.RUnlock()

	switch it.Kind {
	case browser.Parent, browser.Folder:
		p.navigate(func(b *browser.Model) error { return b.Open(id) })
	default:
		p.snap.Lock()
		p.selected = id
		p.snap.Unlock()
		p.showSelection(it, true)
	}
}

func (p *Picker) showSelection(it browser.Item, ok bool) {
	if !ok {
		p.preview.Image = nil
		p.preview.Refresh()
		p.detail.SetText("")
		p.chooseBtn.Disable()
		p.pickBtn.Disable()
		return
	}

	p.chooseBtn.Enable()
	if it.Kind == browser.Image && p.opts.Classifier != nil {
		p.pickBtn.Enable()
	} else {
		p.pickBtn.Disable()
	}

	var img image.Image
	detail := fmt.Sprintf("%s\n%s", it.Name, it.Kind)
	if it.Thumb != nil {
		if loaded, err := it.Thumb.Load(); err == nil {
			img = loaded
		}
		if src, err := it.Thumb.Source(); err == nil {
			if md, err := thumb.ReadMetadata(src); err == nil {
				detail += fmt.Sprintf("\n%dx%d %s", md.Width, md.Height, md.Format)
				if md.Camera != "" {
					detail += "\n" + md.Camera
				}
				if md.Taken != "" {
					detail += "\n" + md.Taken
				}
			}
		}
	}
	p.preview.Image = img
	p.preview.Refresh()
	p.detail.SetText(detail)
}

// Selected returns the selected non-folder item
func (p *Picker) Selected() (browser.Item, bool) {
	p.snap.RLock()
	defer p.snap.RUnlock()
	if p.selected < 0 || p.selected >= len(p.items) {
		return browser.Item{}, false
	}
	return p.items[p.selected], true
}

func (p *Picker) choose() {
	it, ok := p.Selected()
	if !ok {
		return
	}
	if p.opts.OnChoose != nil {
		p.opts.OnChoose(it.Path)
	}
	p.window.Close()
}

func (p *Picker) autopick() {
	it, ok := p.Selected()
	if !ok || p.opts.Classifier == nil {
		return
	}
	p.pickBtn.Disable()
	p.detail.SetText("autopicking " + filepath.Base(it.Path) + "...")

	go func() {
		res := p.opts.Classifier.Autopick(p.ctx, picker.MicrographFromPath(it.Path))
		if err := res.Err(); err != nil {
			p.detail.SetText(fmt.Sprintf("autopick failed: %v", err))
		} else {
			p.detail.SetText("autopick " + res.Micrograph.Name + " done")
		}
		p.pickBtn.Enable()
	}()
}

func (p *Picker) showError(err error) {
	p.statusText.SetText(err.Error())
	log.LogWithError(err).Warn("picker navigation failed")
}

// watchLoop refreshes the listing when the displayed directory changes
func (p *Picker) watchLoop() {
	w := p.opts.Watcher
	for change := range w.Events() {
		if filepath.Dir(change.Path) != p.Dir() {
			continue
		}
		if err := p.withModel((*browser.Model).Refresh); err != nil {
			log.LogWithError(err).Warn("refresh after change failed")
		}
	}
}

// Dir returns the directory shown
func (p *Picker) Dir() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.browser.Dir()
}

// Content returns the root widget of the dialog
func (p *Picker) Content() fyne.CanvasObject {
	return p.content
}

// Run opens the picker window and blocks until it is closed. It returns
// the chosen path, or "" if the window was closed without choosing.
func Run(ctx context.Context, b *browser.Model, opts Options) (string, error) {
	a := app.NewWithID("io.github.xpick")
	w := a.NewWindow("xpick - " + b.Dir())
	w.Resize(fyne.NewSize(900, 600))

	var chosen string
	userChoose := opts.OnChoose
	opts.OnChoose = func(path string) {
		chosen = path
		if userChoose != nil {
			userChoose(path)
		}
	}

	p := NewPicker(ctx, w, b, opts)
	if opts.Watcher != nil {
		if err := opts.Watcher.SetDirectory(b.Dir()); err != nil {
			log.LogWithError(err).Warn("cannot watch directory")
		}
		if err := opts.Watcher.Start(); err != nil {
			return "", err
		}
		defer opts.Watcher.Stop()
		go p.watchLoop()
	}

	go func() {
		<-ctx.Done()
		a.Quit()
	}()

	w.ShowAndRun()
	return chosen, nil
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return true
}
