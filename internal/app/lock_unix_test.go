//go:build unix

package app

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func writeLockOwner(t *testing.T, dataDir string, owner runLockOwner) {
	t.Helper()
	lockDir := filepath.Join(dataDir, runLockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		t.Fatalf("creating lock dir: %v", err)
	}
	data, err := json.Marshal(owner)
	if err != nil {
		t.Fatalf("marshal owner: %v", err)
	}
	if err := os.WriteFile(filepath.Join(lockDir, runLockOwnerFile), data, 0o644); err != nil {
		t.Fatalf("writing owner: %v", err)
	}
}

func exitedPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("running true: %v", err)
	}
	return cmd.Process.Pid
}

func TestAcquireRunLock_ReclaimsDeadOwner(t *testing.T) {
	dataDir := t.TempDir()
	writeLockOwner(t, dataDir, runLockOwner{
		PID:       exitedPID(t),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	})

	lock, err := AcquireRunLock(dataDir)
	if err != nil {
		t.Fatalf("AcquireRunLock() error = %v", err)
	}
	defer lock.Release()

	owner, ok := readRunLockOwner(lock.lockDir)
	if !ok || owner.PID != os.Getpid() {
		t.Errorf("owner = %+v, want pid %d", owner, os.Getpid())
	}
}

func TestAcquireRunLock_KeepsLiveOrRemoteOwner(t *testing.T) {
	tests := []struct {
		name  string
		owner runLockOwner
	}{
		{"live owner", runLockOwner{PID: os.Getpid(), Hostname: hostnameOrUnknown()}},
		{"other host", runLockOwner{PID: 1 << 22, Hostname: "elsewhere.invalid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			writeLockOwner(t, dataDir, tt.owner)

			if _, err := AcquireRunLock(dataDir); err == nil {
				t.Error("expected acquire to fail")
			}
		})
	}
}
