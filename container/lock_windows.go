//go:build windows

package container

import (
	"errors"
	"os"
)

// Windows builds fall back to an O_EXCL-based mutual-exclusion file, since
// golang.org/x/sys/unix.Flock is unavailable. The same ErrVaultBusy contract
// applies: a held lock file causes contenders to retry, then fail.
type lockHandle *os.File

var errWouldBlock = errors.New("lock file already exists")

func tryLock(path string) (lockHandle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, errWouldBlock
		}

		return nil, err
	}

	return f, nil
}

func unlock(h lockHandle) error {
	if h == nil {
		return nil
	}

	path := h.Name()

	if err := h.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}
