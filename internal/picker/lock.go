package picker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the run directory while a run holds it
const LockFileName = ".xpick.lock"

// runLock serializes autopick runs sharing a run directory, across
// processes as well as goroutines
type runLock struct {
	flock *flock.Flock
	path  string
}

func newRunLock(dir string) *runLock {
	path := filepath.Join(dir, LockFileName)
	return &runLock{flock: flock.New(path), path: path}
}

// acquire blocks until the lock is held or ctx is done
func (l *runLock) acquire(ctx context.Context, retry time.Duration) error {
	locked, err := l.flock.TryLockContext(ctx, retry)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", l.path)
	}
	return nil
}

func (l *runLock) release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
