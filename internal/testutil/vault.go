package testutil

import (
	"clipq/internal/clipq"
	"clipq/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() clipq.Vault {
	return vault.NewMemoryVault("test-vault")
}
