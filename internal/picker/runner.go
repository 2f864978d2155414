package picker

import (
	"context"
	"os/exec"
	"time"

	serr "xpick/internal/errors"
)

// Result records one executed command
type Result struct {
	RunID      string
	Command    string
	Dir        string
	ExitStatus int
	Output     string
	Duration   time.Duration
	// Err is a *errors.CommandError when the command could not be started,
	// exited non-zero or timed out
	Err error
}

// OK reports whether the command ran and exited zero
func (r Result) OK() bool {
	return r.Err == nil && r.ExitStatus == 0
}

// Runner executes a shell command line in dir. An empty dir means the
// caller's working directory. Failures are reported inside the Result.
type Runner interface {
	Run(ctx context.Context, command, dir string) Result
}

// ShellRunner runs commands through a POSIX shell
type ShellRunner struct {
	// Shell defaults to sh
	Shell string
	// WaitDelay bounds how long output pipes are drained after the shell
	// is killed; children holding them open are abandoned
	WaitDelay time.Duration
}

// Run executes command with "<shell> -c", capturing stdout and stderr together
func (s *ShellRunner) Run(ctx context.Context, command, dir string) Result {
	shell := s.Shell
	if shell == "" {
		shell = "sh"
	}
	waitDelay := s.WaitDelay
	if waitDelay <= 0 {
		waitDelay = 500 * time.Millisecond
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	output, err := cmd.CombinedOutput()
	result := Result{
		Command:  command,
		Dir:      dir,
		Output:   string(output),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
	case ctx.Err() == context.DeadlineExceeded:
		result.ExitStatus = -1
		result.Err = serr.NewCommandError("command timed out", command, -1, serr.CommandTimedOut, ctx.Err())
	case ctx.Err() != nil:
		result.ExitStatus = -1
		result.Err = serr.NewCommandError("command cancelled", command, -1, serr.CommandLaunchFailed, ctx.Err())
	default:
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitStatus = exitErr.ExitCode()
			result.Err = serr.NewCommandError("command failed", command, result.ExitStatus, serr.CommandExitFailed, nil)
		} else {
			result.ExitStatus = -1
			result.Err = serr.NewCommandError("command failed to start", command, -1, serr.CommandLaunchFailed, err)
		}
	}
	return result
}
