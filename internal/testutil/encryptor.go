package testutil

import (
	"clipq/internal/clipq"
	"clipq/internal/encryption"
)

// NewTestEncryptor creates a deterministic, key-less encryptor for testing.
func NewTestEncryptor() clipq.Encryptor {
	return encryption.NewTestEncryptor()
}
