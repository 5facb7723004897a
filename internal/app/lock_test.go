package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireRunLock_BlocksConcurrentAcquire(t *testing.T) {
	dataDir := t.TempDir()

	lock, err := AcquireRunLock(dataDir)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}
	defer lock.Release()

	_, err = AcquireRunLock(dataDir)
	if err == nil {
		t.Fatal("expected second acquire to fail")
	}
	if !strings.Contains(err.Error(), "pid=") {
		t.Errorf("error should name the owner, got %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(dataDir, runLockDirName)) {
		t.Errorf("error should name the lock directory, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	lock2, err := AcquireRunLock(dataDir)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := lock2.Release(); err != nil {
		t.Fatalf("release second lock: %v", err)
	}
}

func TestAcquireRunLock_CreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "db")

	lock, err := AcquireRunLock(dataDir)
	if err != nil {
		t.Fatalf("AcquireRunLock() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, runLockDirName, runLockOwnerFile)); err != nil {
		t.Errorf("owner file missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}

func TestAcquireRunLock_RequiresDir(t *testing.T) {
	if _, err := AcquireRunLock("  "); err == nil {
		t.Error("expected error for empty data directory")
	}
	var nilLock *RunLock
	if err := nilLock.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestAcquireRunLock_UnknownOwnerIsKept(t *testing.T) {
	dataDir := t.TempDir()
	lockDir := filepath.Join(dataDir, runLockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		t.Fatalf("creating lock dir: %v", err)
	}

	_, err := AcquireRunLock(dataDir)
	if err == nil {
		t.Fatal("expected acquire to fail with an ownerless lock")
	}
	if !strings.Contains(err.Error(), lockDir) {
		t.Errorf("error should name %s, got %v", lockDir, err)
	}
}
