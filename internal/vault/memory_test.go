package vault

import (
	"bytes"
	"strings"
	"testing"
)

func TestMemoryVault_PutAndGetSnapshot(t *testing.T) {
	v := NewMemoryVault("test")
	data := "sqlite snapshot bytes"

	if err := v.PutSnapshot("host-1", "ledger.db", strings.NewReader(data), int64(len(data)), 7); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("host-1", "ledger.db", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != data {
		t.Errorf("GetSnapshot() = %q, want %q", buf.String(), data)
	}

	version, err := v.GetSnapshotVersion("host-1", "ledger.db")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 7 {
		t.Errorf("GetSnapshotVersion() = %d, want 7", version)
	}
}

func TestMemoryVault_SnapshotsAreScopedByHost(t *testing.T) {
	v := NewMemoryVault("test")

	if err := v.PutSnapshot("host-1", "ledger.db", strings.NewReader("one"), 3, 1); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	version, err := v.GetSnapshotVersion("host-2", "ledger.db")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("GetSnapshotVersion() for other host = %d, want 0", version)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("host-2", "ledger.db", &buf); err == nil {
		t.Error("GetSnapshot() for other host expected error")
	}
}

func TestMemoryVault_PutSnapshotSizeMismatch(t *testing.T) {
	v := NewMemoryVault("test")

	if err := v.PutSnapshot("h", "ledger.db", strings.NewReader("short"), 100, 1); err == nil {
		t.Error("PutSnapshot() expected error for size mismatch")
	}

	version, _ := v.GetSnapshotVersion("h", "ledger.db")
	if version != 0 {
		t.Errorf("version after failed put = %d, want 0", version)
	}
}

func TestMemoryVault_PutSnapshotOverwrites(t *testing.T) {
	v := NewMemoryVault("test")

	if err := v.PutSnapshot("h", "ledger.db", strings.NewReader("v1"), 2, 1); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}
	if err := v.PutSnapshot("h", "ledger.db", strings.NewReader("v2"), 2, 2); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("h", "ledger.db", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != "v2" {
		t.Errorf("GetSnapshot() = %q, want v2", buf.String())
	}
}

func TestMemoryVault_ValidateSetup(t *testing.T) {
	v := NewMemoryVault("test")
	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
	if v.Name() != "test" {
		t.Errorf("Name() = %q, want test", v.Name())
	}
}
