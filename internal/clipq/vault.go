package clipq

import "io"

// Vault stores versioned ledger snapshots off-host, so the never-resubmit
// guarantee survives a lost or moved data directory.
type Vault interface {
	// Name identifies the vault in logs.
	Name() string

	// PutSnapshot stores a named snapshot for a host.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the snapshot for consistency checks.
	PutSnapshot(hostID string, name string, r io.Reader, size int64, version int64) error

	// GetSnapshot retrieves a named snapshot for a host and writes it to w.
	GetSnapshot(hostID string, name string, w io.Writer) error

	// GetSnapshotVersion returns the stored version of a named snapshot.
	// Returns 0 if no snapshot has been stored for this host/name.
	GetSnapshotVersion(hostID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
