package picker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	serr "xpick/internal/errors"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	command string
	dir     string
}

// fakeRunner records calls and answers with canned exit statuses
type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	status map[string]int
}

func (f *fakeRunner) Run(ctx context.Context, command, dir string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{command, dir})
	res := Result{Command: command, Dir: dir, Output: "ran " + command}
	if code := f.status[command]; code != 0 {
		res.ExitStatus = code
		res.Err = serr.NewCommandError("command failed", command, code, serr.CommandExitFailed, nil)
	}
	return res
}

func classifierFile(t *testing.T, autopick, convert, runDir string) string {
	t.Helper()
	content := fmt.Sprintf("parameters=size\nsize.value=100\nautopickCommand=%s\nconvertCommand=%s\n", autopick, convert)
	if runDir != "" {
		content += "runDir=" + runDir + "\n"
	}
	return writeFile(t, t.TempDir(), "autopick.properties", content)
}

func TestAutopickRunsPickThenConvert(t *testing.T) {
	runDir := t.TempDir()
	runner := &fakeRunner{}
	c, err := New(classifierFile(t, "pick -s %(size) %(micrograph)", "convert", runDir), WithRunner(runner))
	require.NoError(t, err)

	res := c.Autopick(context.Background(), MicrographFromPath("/data/m1.mrc"))
	require.NoError(t, res.Err())
	assert.True(t, res.OK())

	require.Len(t, runner.calls, 2)
	assert.Equal(t, call{"pick -s 100 /data/m1.mrc", runDir}, runner.calls[0])
	assert.Equal(t, call{"convert", ""}, runner.calls[1], "convert runs in the caller's directory")

	_, err = uuid.Parse(res.RunID)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	for _, r := range res.Results {
		assert.Equal(t, res.RunID, r.RunID)
	}
	pick, ok := res.Pick()
	require.True(t, ok)
	assert.Equal(t, "ran pick -s 100 /data/m1.mrc", pick.Output)
	conv, ok := res.Convert()
	require.True(t, ok)
	assert.Equal(t, "convert", conv.Command)
}

func TestAutopickFailureSkipsConvert(t *testing.T) {
	runner := &fakeRunner{status: map[string]int{"pick m1": 3}}
	c, err := New(classifierFile(t, "pick %(micrographName)", "convert", ""), WithRunner(runner))
	require.NoError(t, err)

	res := c.Autopick(context.Background(), MicrographFromPath("m1.mrc"))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "", runner.calls[0].dir)

	_, ran := res.Convert()
	assert.False(t, ran)
	assert.False(t, res.OK())
	err = res.Err()
	require.Error(t, err)
	assert.Equal(t, serr.CommandExitFailed, serr.KindOf(err))
}

func TestAutopickWithoutConvert(t *testing.T) {
	runner := &fakeRunner{}
	c, err := New(classifierFile(t, "pick", "", ""), WithRunner(runner))
	require.NoError(t, err)

	res := c.Autopick(context.Background(), MicrographFromPath("m.mrc"))
	assert.True(t, res.OK())
	assert.Len(t, runner.calls, 1)
}

func TestAutopickMissingTemplate(t *testing.T) {
	runner := &fakeRunner{}
	c, err := New(writeFile(t, t.TempDir(), "c.properties", "parameters=a\n"), WithRunner(runner))
	require.NoError(t, err)

	res := c.Autopick(context.Background(), MicrographFromPath("m.mrc"))
	assert.Empty(t, runner.calls)
	require.Error(t, res.Err())
	assert.True(t, serr.Is(res.Err(), serr.ErrMissingTemplate))
}

func TestAutopickShell(t *testing.T) {
	runDir := t.TempDir()
	c, err := New(classifierFile(t, "echo picking %(micrographName) size=%(size) && pwd", "echo converted", runDir))
	require.NoError(t, err)

	res := c.Autopick(context.Background(), MicrographFromPath("/data/mic7.mrc"))
	require.NoError(t, res.Err())

	pick, _ := res.Pick()
	assert.Equal(t, 0, pick.ExitStatus)
	assert.Contains(t, pick.Output, "picking mic7 size=100")
	assert.Contains(t, pick.Output, filepath.Base(runDir))
	assert.Greater(t, pick.Duration, time.Duration(0))

	conv, ok := res.Convert()
	require.True(t, ok)
	assert.Equal(t, "converted\n", conv.Output)

	_, err = os.Stat(filepath.Join(runDir, LockFileName))
	assert.NoError(t, err, "lock file is created in the run directory")
}

func TestNonZeroExitIsNotAnError(t *testing.T) {
	c, err := New(classifierFile(t, "echo failing >&2; exit 7", "echo never", ""))
	require.NoError(t, err)

	// Autopick has no error return; the failure is only visible in the result
	res := c.Autopick(context.Background(), MicrographFromPath("m.mrc"))
	require.Len(t, res.Results, 1)
	pick := res.Results[0]
	assert.Equal(t, 7, pick.ExitStatus)
	assert.Contains(t, pick.Output, "failing")
	assert.False(t, pick.OK())

	var cmdErr *serr.CommandError
	require.True(t, serr.As(res.Err(), &cmdErr))
	assert.Equal(t, 7, cmdErr.ExitStatus())
}

func TestAutopickTimeout(t *testing.T) {
	c, err := New(classifierFile(t, "sleep 5", "echo never", ""), WithTimeout(100*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	res := c.Autopick(context.Background(), MicrographFromPath("m.mrc"))
	assert.Less(t, time.Since(start), 4*time.Second)

	require.Len(t, res.Results, 1)
	assert.True(t, serr.IsTimeout(res.Err()))
	assert.Equal(t, -1, res.Results[0].ExitStatus)
}

func TestShellRunnerLaunchFailure(t *testing.T) {
	r := &ShellRunner{Shell: "/nonexistent/shell"}
	res := r.Run(context.Background(), "true", "")
	require.Error(t, res.Err)
	assert.Equal(t, serr.CommandLaunchFailed, serr.KindOf(res.Err))
	assert.Equal(t, -1, res.ExitStatus)

	res = (&ShellRunner{}).Run(context.Background(), "true", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, res.Err)
	assert.Equal(t, serr.CommandLaunchFailed, serr.KindOf(res.Err))
}

func TestShellRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := (&ShellRunner{}).Run(ctx, "true", "")
	require.Error(t, res.Err)
	assert.False(t, res.OK())
}

func TestAutopickLockHeld(t *testing.T) {
	runDir := t.TempDir()
	held := flock.New(filepath.Join(runDir, LockFileName))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	runner := &fakeRunner{}
	c, err := New(classifierFile(t, "pick", "convert", runDir), WithRunner(runner), WithLockRetry(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	res := c.Autopick(ctx, MicrographFromPath("m.mrc"))

	assert.Empty(t, runner.calls, "nothing runs without the lock")
	assert.Equal(t, serr.LockFailed, serr.KindOf(res.Err()))

	// With locking disabled the run proceeds
	c, err = New(classifierFile(t, "pick", "convert", runDir), WithRunner(runner), WithLock(false))
	require.NoError(t, err)
	res = c.Autopick(context.Background(), MicrographFromPath("m.mrc"))
	assert.True(t, res.OK())
	assert.Len(t, runner.calls, 2)
}

func TestAutopickSerializesRunDirectory(t *testing.T) {
	runDir := t.TempDir()
	log := filepath.Join(runDir, "order.log")
	cmd := fmt.Sprintf("echo start >> %s; sleep 0.2; echo end >> %s", log, log)
	c, err := New(classifierFile(t, cmd, "", runDir), WithLockRetry(10*time.Millisecond))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := c.Autopick(context.Background(), MicrographFromPath("m.mrc"))
			assert.True(t, res.OK())
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "end", "start", "end"}, strings.Fields(string(data)))
}
