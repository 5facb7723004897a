package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	runLockDirName   = ".run.lock"
	runLockOwnerFile = "owner.json"
)

// RunLock keeps two clipq processes from working against the same ledger.
// The lock is a directory; mkdir is atomic on every filesystem we care about.
type RunLock struct {
	lockDir string
}

type runLockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

// AcquireRunLock takes the lock in dataDir or reports who holds it.
func AcquireRunLock(dataDir string) (*RunLock, error) {
	target := strings.TrimSpace(dataDir)
	if target == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(target, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	lockDir := filepath.Join(target, runLockDirName)
	err := os.Mkdir(lockDir, 0o755)
	if os.IsExist(err) && clearStaleRunLock(lockDir) {
		err = os.Mkdir(lockDir, 0o755)
	}
	if err != nil {
		if os.IsExist(err) {
			if owner, ok := readRunLockOwner(lockDir); ok {
				return nil, fmt.Errorf("ledger is locked by another run: %s (pid=%d created_at=%s host=%s)",
					lockDir, owner.PID, owner.CreatedAt, owner.Hostname)
			}
			return nil, fmt.Errorf("ledger is locked by another run: %s (remove it if no clipq run is active)", lockDir)
		}
		return nil, fmt.Errorf("acquiring run lock %s: %w", lockDir, err)
	}

	owner := runLockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	data, err := json.Marshal(owner)
	if err == nil {
		err = os.WriteFile(filepath.Join(lockDir, runLockOwnerFile), data, 0o644)
	}
	if err != nil {
		_ = os.Remove(lockDir)
		return nil, fmt.Errorf("writing run lock owner %s: %w", lockDir, err)
	}

	return &RunLock{lockDir: lockDir}, nil
}

// Release removes the lock. Releasing a nil or released lock is a no-op.
func (l *RunLock) Release() error {
	if l == nil || l.lockDir == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, runLockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing run lock %s: %w", l.lockDir, err)
	}
	l.lockDir = ""
	return nil
}

func readRunLockOwner(lockDir string) (runLockOwner, bool) {
	var owner runLockOwner
	data, err := os.ReadFile(filepath.Join(lockDir, runLockOwnerFile))
	if err != nil || json.Unmarshal(data, &owner) != nil || owner.PID <= 0 {
		return owner, false
	}
	return owner, true
}

// clearStaleRunLock removes a lock left behind by a process on this host that
// no longer exists. Locks with an unknown owner or from another host are kept.
func clearStaleRunLock(lockDir string) bool {
	owner, ok := readRunLockOwner(lockDir)
	if !ok || owner.Hostname != hostnameOrUnknown() || processAlive(owner.PID) {
		return false
	}
	_ = os.Remove(filepath.Join(lockDir, runLockOwnerFile))
	return os.Remove(lockDir) == nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
