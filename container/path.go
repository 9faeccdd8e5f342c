package container

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the default vault directory when set.
const EnvHome = "VAULTX_HOME"

// DefaultDir is the directory name created under the user's home directory
// when EnvHome is not set.
const DefaultDir = ".vaultx"

// DefaultFilename is the container file name within the vault directory.
const DefaultFilename = "vault.vx"

// LockFilename is the advisory lockfile name adjacent to the container.
const LockFilename = DefaultFilename + ".lock"

// DefaultPaths resolves the container path and its adjacent lockfile path,
// honoring EnvHome when set and falling back to "~/.vaultx" otherwise.
func DefaultPaths() (vaultPath, lockPath string, err error) {
	dir, err := defaultDir()
	if err != nil {
		return "", "", err
	}

	return filepath.Join(dir, DefaultFilename), filepath.Join(dir, LockFilename), nil
}

func defaultDir() (string, error) {
	if v, ok := os.LookupEnv(EnvHome); ok && len(v) > 0 {
		return v, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, DefaultDir), nil
}

// LockPathFor returns the advisory lockfile path adjacent to the given
// container path, e.g. "vault.vx" -> "vault.vx.lock".
func LockPathFor(vaultPath string) string {
	return vaultPath + ".lock"
}

// EnsureDir creates the parent directory of path with owner-only
// permissions if it does not already exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o700)
}
