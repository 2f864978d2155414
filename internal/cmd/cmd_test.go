package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xpick/internal/testutil"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// execute runs the command tree against a config file that does not exist,
// so every test starts from the defaults
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.CreateFiles(t, dir, map[string]string{
		"sub/":      "",
		"a.mrc":     "data",
		"b.png":     "data",
		"notes.txt": "data",
	})
	return dir
}

func writeClassifier(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classifier.properties")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLsCommand(t *testing.T) {
	dir := setupDir(t)

	t.Run("full listing", func(t *testing.T) {
		out, err := execute(t, "ls", dir)
		require.NoError(t, err)
		assert.Equal(t, "parent  ..\n"+
			"folder  sub/\n"+
			"image   a.mrc\n"+
			"image   b.png\n"+
			"file    notes.txt\n"+
			"showing 4 of 4\n", out)
	})

	t.Run("filtered", func(t *testing.T) {
		out, err := execute(t, "ls", dir, "--filter", "*.PNG notes*")
		require.NoError(t, err)
		assert.Contains(t, out, "b.png")
		assert.Contains(t, out, "notes.txt")
		assert.NotContains(t, out, "a.mrc")
		assert.Contains(t, out, `⚠ showing 2 of 4 (filter "*.PNG notes*")`)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := execute(t, "ls", filepath.Join(dir, "nope"))
		assert.Error(t, err)
	})
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("browser:\n  thumbnail_cache_size: 0\n"), 0644))

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "ls", t.TempDir()})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thumbnail_cache_size")
}

func TestBrowseWithoutTerminal(t *testing.T) {
	orig := isTerminal
	isTerminal = func(*os.File) bool { return false }
	defer func() { isTerminal = orig }()

	dir := setupDir(t)
	out, err := execute(t, "browse", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "folder  sub/")
	assert.Contains(t, out, "showing 4 of 4")
}

func TestAutopickCommand(t *testing.T) {
	classifier := writeClassifier(t, "parameters=threshold\n"+
		"threshold.value=0.5\n"+
		"autopickCommand=echo pick %(micrographName) %(threshold)\n"+
		"convertCommand=echo converted\n")

	out, err := execute(t, "autopick", "--classifier", classifier, "mic1.mrc", "mic2.mrc")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   mic1")
	assert.Contains(t, out, "| pick mic1 0.5")
	assert.Contains(t, out, "ok   mic2")
	assert.Contains(t, out, "| converted")
}

func TestAutopickFailures(t *testing.T) {
	classifier := writeClassifier(t, "parameters=\nautopickCommand=echo boom; exit 3\nconvertCommand=echo converted\n")

	out, err := execute(t, "autopick", "-c", classifier, "mic1.mrc")
	require.NoError(t, err, "failures are reported, not returned, without --strict")
	assert.Contains(t, out, "FAIL mic1")
	assert.Contains(t, out, "exit 3")
	assert.Contains(t, out, "| boom")
	assert.NotContains(t, out, "converted")

	_, err = execute(t, "autopick", "-c", classifier, "--strict", "mic1.mrc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 autopick runs failed")

	_, err = execute(t, "autopick", "mic1.mrc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no classifier file given")
}

func TestParamsCommand(t *testing.T) {
	classifier := writeClassifier(t, "parameters=threshold,size\n"+
		"threshold.label=Threshold\n"+
		"threshold.value=0.5\n"+
		"size.help=Particle size in pixels\n"+
		"autopickCommand=pick %(micrograph) -t %(thresold) -s %(size)\n")

	out, err := execute(t, "params", "-c", classifier, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "| `threshold` | Threshold | 0.5 | - |")
	assert.Contains(t, out, "| `size` | - | - | Particle size in pixels |")
	assert.Contains(t, out, "## Unresolved placeholders")
	assert.Contains(t, out, "- `%(thresold)`, did you mean `%(threshold)`?")

	out, err = execute(t, "params", "-c", classifier)
	require.NoError(t, err)
	assert.Contains(t, out, "threshold")
	assert.Contains(t, out, "thresold")
}

func TestWatchCommand(t *testing.T) {
	classifier := writeClassifier(t, "parameters=\nautopickCommand=echo picked %(micrographName)\n")
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "mic7.mrc"), []byte("data"), 0644)
		_ = os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("data"), 0644)
		time.Sleep(time.Second)
		cancel()
	}()

	out, err := executeContext(t, ctx, "watch", dir, "-c", classifier, "--settle", "50ms")
	require.NoError(t, err)
	assert.Contains(t, out, "watching "+dir)
	assert.Contains(t, out, "ok   mic7")
	assert.Contains(t, out, "| picked mic7")
	assert.NotContains(t, out, "skip")
	assert.Contains(t, out, "autopicked 1 micrographs, 0 failed")
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xpick", "config.yaml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)
	assert.FileExists(t, path)

	_, err = execute(t, "--config", path, "config", "init")
	assert.ErrorContains(t, err, "already exists")
	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "thumbnail_cache_size: 256")
	assert.Contains(t, out, "level: info")
}

func TestEnvFile(t *testing.T) {
	const key = "XPICK_PICKER_ARGS"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { os.Unsetenv(key) })

	env := filepath.Join(t.TempDir(), "picker.env")
	require.NoError(t, os.WriteFile(env, []byte(key+"=--gpu 0\n"), 0644))
	classifier := writeClassifier(t, "parameters=\nautopickCommand=echo pick $"+key+" %(micrographName)\n")

	out, err := execute(t, "--env-file", env, "autopick", "-c", classifier, "mic1.mrc")
	require.NoError(t, err)
	assert.Contains(t, out, "| pick --gpu 0 mic1", "the shell expands variables from the env file")

	_, err = execute(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "ls", t.TempDir())
	assert.ErrorContains(t, err, "loading environment file")
}
