// Package sshsvc implements the ephemeral SSH private-key export contract:
// a freshly created, restrictively permissioned temp file that an external
// ssh/scp client can point at, zeroized and deleted on every exit path.
package sshsvc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vaultx/vaultx/vault"
	"github.com/vaultx/vaultx/vaultmodel"
)

// ExportPrefix names the temp-file namespace this package owns, so a
// crash-recovery sweep can tell its own stale files apart from unrelated
// files sharing the same temp directory.
const ExportPrefix = "vaultx-ssh-export-"

// Export is a handle to one ephemeral private-key export. Close must be
// called exactly once, on every code path, to zero and delete the backing
// file; Export is safe to Close from a deferred call even after a panic.
type Export struct {
	Path string

	closed bool
}

// ExportPrivateKey decrypts the named SSH identity's private key and
// writes it to a fresh file in dir (os.TempDir() if dir is empty),
// permissioned 0600 before any key bytes are written. The caller must
// defer Close on the returned Export.
func ExportPrivateKey(vlt *vault.Vault, name string, dir string) (exp *Export, retErr error) {
	if dir == "" {
		dir = os.TempDir()
	}

	priv, err := vlt.SshPrivateKey(name)
	if err != nil {
		return nil, fmt.Errorf("export private key: %w", err)
	}

	defer vaultmodel.Zero(priv)

	filename := ExportPrefix + uuid.NewString()
	path := filepath.Join(dir, filename)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("export private key: create temp file: %w", err)
	}

	defer func() {
		if retErr != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	if _, err := f.Write(priv); err != nil {
		return nil, fmt.Errorf("export private key: write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("export private key: close temp file: %w", err)
	}

	return &Export{Path: path}, nil
}

// Close zeroes the exported file's contents in place, then deletes it. It
// is idempotent: calling it more than once is a no-op after the first
// call.
func (e *Export) Close() error {
	if e == nil || e.closed {
		return nil
	}

	e.closed = true

	if err := zeroFile(e.Path); err != nil {
		// Still attempt removal even if the zero pass failed (e.g. the
		// file was already gone), since leaving a stale export behind is
		// worse than a partially-zeroed one that is about to be unlinked.
		_ = os.Remove(e.Path)
		return err
	}

	return os.Remove(e.Path)
}

func zeroFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	zeros := make([]byte, info.Size())

	_, err = f.WriteAt(zeros, 0)

	return err
}

// SweepStale deletes any file in dir matching the ExportPrefix glob,
// recovering temp files left behind by a process that crashed or was
// killed before its deferred Close ran. It is best-effort: individual
// removal failures are ignored.
func SweepStale(dir string) {
	if dir == "" {
		dir = os.TempDir()
	}

	matches, err := filepath.Glob(filepath.Join(dir, ExportPrefix+"*"))
	if err != nil {
		return
	}

	for _, m := range matches {
		_ = zeroFile(m)
		_ = os.Remove(m)
	}
}
