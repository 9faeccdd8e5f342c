//go:build unix

package container

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

type lockHandle *os.File

var errWouldBlock = unix.EWOULDBLOCK

func tryLock(path string) (lockHandle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()

		if errors.Is(err, unix.EWOULDBLOCK) {
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

	if err := unix.Flock(int(h.Fd()), unix.LOCK_UN); err != nil {
		_ = h.Close()
		return err
	}

	return h.Close()
}
