package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"xpick/internal/picker"
	"xpick/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePicker records micrographs and fails the ones named in fail
type fakePicker struct {
	mu   sync.Mutex
	mics []string
	fail map[string]bool
}

func newFakePicker(fail ...string) *fakePicker {
	f := &fakePicker{fail: map[string]bool{}}
	for _, name := range fail {
		f.fail[name] = true
	}
	return f
}

func (f *fakePicker) Autopick(ctx context.Context, mic picker.Micrograph) picker.AutopickResult {
	f.mu.Lock()
	f.mics = append(f.mics, mic.Name)
	f.mu.Unlock()

	res := picker.AutopickResult{Micrograph: mic, Results: []picker.Result{{Command: "pick " + mic.Name}}}
	if f.fail[mic.Name] {
		res.Results[0].ExitStatus = 1
	}
	return res
}

func (f *fakePicker) picked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.mics...)
}

func waitPicked(t *testing.T, results <-chan picker.AutopickResult) string {
	t.Helper()
	select {
	case res := <-results:
		return res.Micrograph.Name
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for autopick")
		return ""
	}
}

func TestDaemonPicksNewImages(t *testing.T) {
	dir := t.TempDir()
	fp := newFakePicker("bad")

	d, err := NewDaemon(dir, fp)
	require.NoError(t, err)
	d.SetSettle(50 * time.Millisecond)
	require.NoError(t, d.SetFilter("*.png"))

	// The callback runs after the status counters are updated
	results := make(chan picker.AutopickResult, 8)
	d.SetCallback(func(res picker.AutopickResult) {
		results <- res
	})

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()
	assert.Error(t, d.Start(context.Background()), "Start twice should fail")

	// Filtered out or hidden
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	testutil.WritePNG(t, filepath.Join(dir, ".hidden.png"), 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fake.txt.png"), []byte("not an image"), 0644))

	testutil.WritePNG(t, filepath.Join(dir, "mic1.png"), 4, 4)
	assert.Equal(t, "fake.txt", waitPicked(t, results), "png extension is enough to be an image")
	assert.Equal(t, "mic1", waitPicked(t, results))

	testutil.WritePNG(t, filepath.Join(dir, "bad.png"), 4, 4)
	assert.Equal(t, "bad", waitPicked(t, results))

	status := d.Status()
	assert.True(t, status.Running)
	assert.Equal(t, dir, status.Directory)
	assert.Equal(t, 3, status.Processed)
	assert.Equal(t, 1, status.Failed)
	assert.False(t, status.LastActivity.IsZero())

	// A rewrite of a picked image is not picked again
	testutil.WritePNG(t, filepath.Join(dir, "mic1.png"), 4, 4)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"fake.txt", "mic1", "bad"}, fp.picked())

	d.Stop()
	assert.False(t, d.Status().Running)
}

func TestDaemonErrors(t *testing.T) {
	_, err := NewDaemon(filepath.Join(t.TempDir(), "missing"), newFakePicker())
	assert.Error(t, err)

	d, err := NewDaemon(t.TempDir(), newFakePicker())
	require.NoError(t, err)
	require.NoError(t, d.SetFilter("[raw] {a,b}"), "glob metacharacters are literal")
	d.Stop()
	assert.False(t, d.Status().Running, "Stop before Start is a no-op")
}

func TestDaemonRestart(t *testing.T) {
	d, err := NewDaemon(t.TempDir(), newFakePicker())
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	d.Stop()

	err = d.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped")
	assert.False(t, d.Status().Running)

	// A fresh daemon on the same directory works
	d2, err := NewDaemon(d.Status().Directory, newFakePicker())
	require.NoError(t, err)
	require.NoError(t, d2.Start(context.Background()))
	d2.Stop()
}
