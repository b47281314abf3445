package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

// ErrLocked is returned when another run holds the store lock.
var ErrLocked = eris.New("store: another run holds the lock")

// RunLock serializes read-merge-write cycles on the canonical store across
// processes.
type RunLock struct {
	fl *flock.Flock
}

func NewRunLock(storePath string) *RunLock {
	return &RunLock{fl: flock.New(storePath + ".lock")}
}

// Acquire retries until the lock is free or ctx ends.
func (l *RunLock) Acquire(ctx context.Context, retry time.Duration) error {
	ok, err := l.fl.TryLockContext(ctx, retry)
	if err != nil {
		if ctx.Err() != nil {
			return eris.Wrap(ErrLocked, ctx.Err().Error())
		}
		return eris.Wrap(err, "store: acquire lock")
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

func (l *RunLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return eris.Wrap(err, "store: release lock")
	}
	return nil
}
