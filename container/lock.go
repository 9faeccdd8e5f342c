package container

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrVaultBusy indicates the advisory lock is held by another process.
var ErrVaultBusy = errors.New("vault is busy: locked by another process")

// DefaultLockWait bounds how long AcquireLock will retry before giving up
// with ErrVaultBusy.
const DefaultLockWait = 2 * time.Second

const lockPollInterval = 25 * time.Millisecond

// Lock represents an acquired exclusive advisory lock on a vault's
// lockfile. Release must be called exactly once.
type Lock struct {
	path string
	fd   lockHandle
}

// AcquireLock takes an exclusive advisory lock on path, creating the
// lockfile if necessary. It retries on contention until wait elapses, then
// fails with ErrVaultBusy. Only one Lock per (path, process) may be held at
// a time; a second invocation observing the lock held by another process
// fails after the bounded wait, never blocking indefinitely.
func AcquireLock(ctx context.Context, path string, wait time.Duration) (*Lock, error) {
	if err := EnsureDir(path); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	deadline := time.Now().Add(wait)

	for {
		fd, err := tryLock(path)
		if err == nil {
			return &Lock{path: path, fd: fd}, nil
		}

		if !errors.Is(err, errWouldBlock) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}

		if time.Now().After(deadline) {
			return nil, ErrVaultBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// Release drops the advisory lock and removes the underlying file handle.
// It is safe to call once; a nil receiver is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	return unlock(l.fd)
}
