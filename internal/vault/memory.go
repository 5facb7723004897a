package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"clipq/internal/clipq"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name     string
	data     map[string][]byte // "hostID/name" -> snapshot
	versions map[string]int64  // "hostID/name" -> version
	mu       sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:     name,
		data:     make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

func snapshotKey(hostID, name string) string {
	return hostID + "/" + name
}

// Name returns the vault name.
func (m *MemoryVault) Name() string {
	return m.name
}

// PutSnapshot stores a named snapshot for a specific host.
func (m *MemoryVault) PutSnapshot(hostID string, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := snapshotKey(hostID, name)
	m.data[key] = data
	m.versions[key] = version
	return nil
}

// GetSnapshotVersion returns 0 if no snapshot has been stored for this host/name.
func (m *MemoryVault) GetSnapshotVersion(hostID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[snapshotKey(hostID, name)], nil
}

// GetSnapshot retrieves a named snapshot for a specific host.
func (m *MemoryVault) GetSnapshot(hostID string, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[snapshotKey(hostID, name)]
	if !ok {
		return fmt.Errorf("snapshot %q not found for host: %s", name, hostID)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryVault implements clipq.Vault interface
var _ clipq.Vault = (*MemoryVault)(nil)
