package picker

import (
	"context"
	"strings"

	serr "xpick/internal/errors"
	log "xpick/internal/log"

	"github.com/google/uuid"
)

// AutopickResult holds one Result per executed command: the autopick
// command and, when it succeeded, the convert command.
type AutopickResult struct {
	RunID      string
	Micrograph Micrograph
	Results    []Result
}

// Pick returns the autopick command's result
func (r AutopickResult) Pick() (Result, bool) {
	if len(r.Results) == 0 {
		return Result{}, false
	}
	return r.Results[0], true
}

// Convert returns the convert command's result, if it ran
func (r AutopickResult) Convert() (Result, bool) {
	if len(r.Results) < 2 {
		return Result{}, false
	}
	return r.Results[1], true
}

// OK reports whether every executed command succeeded
func (r AutopickResult) OK() bool {
	return r.Err() == nil
}

// Err returns the first command failure, or nil. Autopick itself never
// fails; callers that need to act on failures check this.
func (r AutopickResult) Err() error {
	for _, res := range r.Results {
		if res.Err != nil {
			return res.Err
		}
		if res.ExitStatus != 0 {
			return serr.NewCommandError("command failed", res.Command, res.ExitStatus, serr.CommandExitFailed, nil)
		}
	}
	return nil
}

// Autopick expands the autopick template for mic and runs it, in the run
// directory when one is configured. When it succeeds the convert command
// runs as written in the caller's directory. Failures are logged and kept
// in the returned result.
func (c *Classifier) Autopick(ctx context.Context, mic Micrograph) AutopickResult {
	res := AutopickResult{RunID: uuid.NewString(), Micrograph: mic}
	logger := c.logger.With(log.F("run_id", res.RunID), log.F("micrograph", mic.Path))

	command := c.Expand(mic)
	if strings.TrimSpace(command) == "" {
		pick := Result{RunID: res.RunID, ExitStatus: -1,
			Err: serr.NewCommandError(serr.ErrMissingTemplate.Error(), KeyAutopickCommand, -1, serr.CommandLaunchFailed, serr.ErrMissingTemplate)}
		logger.WithError(pick.Err).Error("autopick not run")
		res.Results = append(res.Results, pick)
		return res
	}

	if c.runDir != "" && c.lock {
		lock := newRunLock(c.runDir)
		if err := lock.acquire(ctx, c.lockRetry); err != nil {
			pick := Result{RunID: res.RunID, Command: command, Dir: c.runDir, ExitStatus: -1,
				Err: serr.NewCommandError("cannot lock run directory", command, -1, serr.LockFailed, err)}
			logger.WithError(pick.Err).Error("autopick not run")
			res.Results = append(res.Results, pick)
			return res
		}
		defer func() {
			if err := lock.release(); err != nil {
				logger.WithError(err).Warn("run directory lock not released")
			}
		}()
	}

	pick := c.run(ctx, logger, command, c.runDir)
	pick.RunID = res.RunID
	res.Results = append(res.Results, pick)
	if !pick.OK() {
		logger.Warn("autopick failed, convert skipped")
		return res
	}

	if strings.TrimSpace(c.convertCommand) == "" {
		logger.Debug("no convert command configured")
		return res
	}
	convert := c.run(ctx, logger, c.convertCommand, "")
	convert.RunID = res.RunID
	res.Results = append(res.Results, convert)
	return res
}

func (c *Classifier) run(ctx context.Context, logger *log.Logger, command, dir string) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	logger.With(log.F("command", command), log.F("dir", dir)).Info("running command")
	result := c.runner.Run(ctx, command, dir)

	entry := logger.With(log.F("command", command), log.F("exit_status", result.ExitStatus), log.F("duration", result.Duration.String()))
	if out := strings.TrimSpace(result.Output); out != "" {
		entry = entry.With(log.F("output", out))
	}
	if result.Err != nil {
		entry.WithError(result.Err).Error("command failed")
	} else {
		entry.Info("command finished")
	}
	return result
}
