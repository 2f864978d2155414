package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"xpick/internal/browser"
	"xpick/internal/log"
	"xpick/internal/picker"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a new file must stay unchanged before it is
// picked
const DefaultSettle = 2 * time.Second

// Autopicker runs the autopick program on one micrograph.
// *picker.Classifier implements it.
type Autopicker interface {
	Autopick(ctx context.Context, mic picker.Micrograph) picker.AutopickResult
}

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running      bool      // Whether the daemon is currently active
	Directory    string    // Directory being watched
	LastActivity time.Time // Time of the last autopick run
	Processed    int       // Micrographs autopicked
	Failed       int       // Runs whose result was not OK
}

// Daemon autopicks images as they arrive in a directory. Each new image
// that passes the filter is picked once, after it has settled. A daemon
// cannot be restarted after Stop.
type Daemon struct {
	dir     string
	picker  Autopicker
	watcher *Watcher

	filter   *browser.Filter
	settle   time.Duration
	callback func(picker.AutopickResult)

	// seen is owned by the event goroutine
	seen map[string]bool

	mutex        sync.RWMutex
	running      bool
	stopped      bool
	processed    int
	failed       int
	lastActivity time.Time
	cancel       context.CancelFunc
	finished     chan struct{}
}

// NewDaemon creates a daemon for dir that runs p on new images
func NewDaemon(dir string, p Autopicker) (*Daemon, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	w, err := New(256)
	if err != nil {
		return nil, err
	}
	if err := w.SetDirectory(abs); err != nil {
		return nil, err
	}
	filter, _ := browser.CompileFilter("")

	return &Daemon{
		dir:     abs,
		picker:  p,
		watcher: w,
		filter:  filter,
		settle:  DefaultSettle,
		seen:    make(map[string]bool),
	}, nil
}

// SetFilter restricts picking to names matching the wildcard filter text
func (d *Daemon) SetFilter(text string) error {
	filter, err := browser.CompileFilter(text)
	if err != nil {
		return err
	}
	d.mutex.Lock()
	d.filter = filter
	d.mutex.Unlock()
	return nil
}

// SetSettle sets how long a file must be quiet before it is picked
func (d *Daemon) SetSettle(settle time.Duration) {
	d.mutex.Lock()
	d.settle = settle
	d.mutex.Unlock()
}

// SetCallback sets a function called with every autopick result
func (d *Daemon) SetCallback(cb func(picker.AutopickResult)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = cb
}

// Start begins watching. Runs in progress are cancelled through ctx or Stop.
func (d *Daemon) Start(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.running {
		return fmt.Errorf("daemon is already running")
	}
	if d.stopped {
		return fmt.Errorf("daemon has been stopped, create a new one")
	}
	if err := d.watcher.Start(); err != nil {
		return fmt.Errorf("error starting watcher: %w", err)
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.finished = make(chan struct{})
	d.running = true

	go d.processEvents(ctx, d.finished)
	log.LogWithFields(log.F("directory", d.dir)).Info("autopick daemon started")
	return nil
}

// Stop halts the daemon, cancelling a run in progress
func (d *Daemon) Stop() {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return
	}
	d.running = false
	d.stopped = true
	cancel, finished := d.cancel, d.finished
	d.mutex.Unlock()

	cancel()
	<-finished
	d.watcher.Stop()
	log.LogWithFields(log.F("directory", d.dir)).Info("autopick daemon stopped")
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return DaemonStatus{
		Running:      d.running,
		Directory:    d.dir,
		LastActivity: d.lastActivity,
		Processed:    d.processed,
		Failed:       d.failed,
	}
}

func (d *Daemon) processEvents(ctx context.Context, finished chan<- struct{}) {
	defer close(finished)

	d.mutex.RLock()
	settle := d.settle
	d.mutex.RUnlock()
	tick := time.NewTicker(max(settle/4, 10*time.Millisecond))
	defer tick.Stop()

	// last event time per candidate file
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return

		case change, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			switch {
			case change.Op.Has(fsnotify.Remove), change.Op.Has(fsnotify.Rename):
				delete(pending, change.Path)
			case change.Op.Has(fsnotify.Create), change.Op.Has(fsnotify.Write):
				if d.wanted(change.Path) {
					pending[change.Path] = change.Timestamp
				}
			}

		case now := <-tick.C:
			var ready []string
			for path, last := range pending {
				if now.Sub(last) >= settle {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				delete(pending, path)
				if ctx.Err() != nil {
					return
				}
				d.autopick(ctx, path)
			}
		}
	}
}

func (d *Daemon) wanted(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || d.seen[path] {
		return false
	}
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.filter.Match(name)
}

func (d *Daemon) autopick(ctx context.Context, path string) {
	logger := log.LogWithFields(log.F("file", path))

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if browser.Classify(path, false, true) != browser.Image {
		logger.Debug("not an image, skipped")
		return
	}
	d.seen[path] = true

	res := d.picker.Autopick(ctx, picker.MicrographFromPath(path))

	d.mutex.Lock()
	d.processed++
	if !res.OK() {
		d.failed++
	}
	d.lastActivity = time.Now()
	cb := d.callback
	d.mutex.Unlock()

	if cb != nil {
		cb(res)
	}
}
