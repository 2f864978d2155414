//go:build !nogui

package gui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xpick/internal/browser"
	"xpick/internal/testutil"
	"xpick/internal/thumb"
	"xpick/internal/watch"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPicker lists .., sub, mic1.png, notes.txt
func setupPicker(t *testing.T, opts Options) (*Picker, string) {
	t.Helper()
	test.NewTempApp(t)

	dir := t.TempDir()
	testutil.CreateFiles(t, dir, map[string]string{"sub/": "", "notes.txt": "text"})
	testutil.WritePNG(t, filepath.Join(dir, "mic1.png"), 40, 20)

	cache, err := thumb.NewCache(16, 32)
	require.NoError(t, err)
	b, err := browser.New(dir, browser.WithThumbnails(cache))
	require.NoError(t, err)

	w := test.NewTempWindow(t, nil)
	p := NewPicker(context.Background(), w, b, opts)
	require.NotNil(t, w.Content())
	return p, dir
}

func TestPickerInitialState(t *testing.T) {
	p, dir := setupPicker(t, Options{})

	assert.Equal(t, 4, p.list.Length())
	assert.Equal(t, "showing 3 of 3", p.statusText.Text)
	assert.False(t, p.alert.Visible(), "no warning icon without a filter")
	assert.Equal(t, dir, p.dirLabel.Text)
	assert.True(t, p.chooseBtn.Disabled())
	_, ok := p.Selected()
	assert.False(t, ok)
}

func TestPickerFilterEntry(t *testing.T) {
	p, _ := setupPicker(t, Options{})

	p.filter.SetText("*.png")
	assert.Equal(t, "*.png", p.browser.FilterText())
	assert.Equal(t, 2, p.list.Length())
	assert.Equal(t, "showing 1 of 3", p.statusText.Text)
	assert.True(t, p.alert.Visible())

	p.filter.SetText("")
	assert.Equal(t, 4, p.list.Length())
	assert.False(t, p.alert.Visible())
}

func TestPickerNavigation(t *testing.T) {
	p, dir := setupPicker(t, Options{})

	p.list.Select(1)
	assert.Equal(t, filepath.Join(dir, "sub"), p.Dir())
	assert.Equal(t, 1, p.list.Length(), "an empty folder lists only the parent entry")

	p.list.Select(0)
	assert.Equal(t, dir, p.Dir())
	assert.Equal(t, 4, p.list.Length())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mic2.png"), []byte("x"), 0644))
	p.navigate((*browser.Model).Refresh)
	assert.Equal(t, 5, p.list.Length())
}

func TestPickerChoose(t *testing.T) {
	var chosen string
	p, dir := setupPicker(t, Options{OnChoose: func(path string) { chosen = path }})

	p.list.Select(2)
	it, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, "mic1.png", it.Name)
	assert.False(t, p.chooseBtn.Disabled())
	assert.NotNil(t, p.preview.Image, "images get a preview")
	assert.Contains(t, p.detail.Text, "40x20 png")
	assert.True(t, p.pickBtn.Disabled(), "autopick needs a classifier")

	test.Tap(p.chooseBtn)
	assert.Equal(t, filepath.Join(dir, "mic1.png"), chosen)
}

func TestPickerWatchRefresh(t *testing.T) {
	w, err := watch.New(8)
	require.NoError(t, err)
	p, dir := setupPicker(t, Options{Watcher: w})

	require.NoError(t, w.SetDirectory(dir))
	require.NoError(t, w.Start())
	defer w.Stop()
	go p.watchLoop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mic2.png"), []byte("x"), 0644))
	require.Eventually(t, func() bool {
		return p.list.Length() == 5
	}, 2*time.Second, 20*time.Millisecond)
}
