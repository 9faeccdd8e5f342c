package sshsvc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vaultx/vaultx/sshsvc"
	"github.com/vaultx/vaultx/vault"
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vault.vx")

	vlt, err := vault.New(context.Background(), path, []byte("pw"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(func() { vlt.Close() })

	return vlt
}

func TestExportPrivateKey_WritesFileAndCleansUp(t *testing.T) {
	vlt := newTestVault(t)

	if _, err := vlt.SshCreate("deploy", "deploy@vaultx"); err != nil {
		t.Fatalf("SshCreate: %v", err)
	}

	dir := t.TempDir()

	exp, err := sshsvc.ExportPrivateKey(vlt, "deploy", dir)
	if err != nil {
		t.Fatalf("ExportPrivateKey: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(exp.Path), sshsvc.ExportPrefix) {
		t.Fatalf("unexpected export filename: %s", exp.Path)
	}

	data, err := os.ReadFile(exp.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if len(data) == 0 {
		t.Fatalf("expected non-empty exported key")
	}

	if err := exp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(exp.Path); !os.IsNotExist(err) {
		t.Fatalf("expected export file to be removed, stat err = %v", err)
	}

	// Closing twice must be a no-op, not an error.
	if err := exp.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestExportPrivateKey_UnknownIdentity(t *testing.T) {
	vlt := newTestVault(t)

	if _, err := sshsvc.ExportPrivateKey(vlt, "missing", t.TempDir()); err == nil {
		t.Fatalf("expected error for unknown identity")
	}
}

func TestSweepStale_RemovesOwnNamespaceOnly(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, sshsvc.ExportPrefix+"leftover")
	if err := os.WriteFile(stale, []byte("secret"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	unrelated := filepath.Join(dir, "unrelated-file")
	if err := os.WriteFile(unrelated, []byte("keep me"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sshsvc.SweepStale(dir)

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale export to be swept")
	}

	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("expected unrelated file to survive sweep: %v", err)
	}
}
