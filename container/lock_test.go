package container_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vaultx/vaultx/container"
)

func TestAcquireLock_ExclusiveAndBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.vx.lock")

	lock, err := container.AcquireLock(context.Background(), path, container.DefaultLockWait)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}

	_, err = container.AcquireLock(context.Background(), path, 100*time.Millisecond)
	if err != container.ErrVaultBusy {
		t.Fatalf("second acquire err = %v, want %v", err, container.ErrVaultBusy)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	lock2, err := container.AcquireLock(context.Background(), path, container.DefaultLockWait)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}

	if err := lock2.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestAcquireLock_ContextCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.vx.lock")

	lock, err := container.AcquireLock(context.Background(), path, container.DefaultLockWait)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}
	defer lock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := container.AcquireLock(ctx, path, time.Second); err == nil {
		t.Fatalf("expected error after context cancellation")
	}
}
