package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemVault(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")

	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "snapshots")); err != nil {
		t.Errorf("snapshots directory not created: %v", err)
	}
	if v.Name() != "test" {
		t.Errorf("Name() = %q, want test", v.Name())
	}
}

func TestFileSystemVault_PutAndGetSnapshot(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	data := "encrypted ledger"
	if err := v.PutSnapshot("host-1", "ledger.db.age", strings.NewReader(data), int64(len(data)), 42); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "snapshots", "host-1", "ledger.db.age")); err != nil {
		t.Errorf("snapshot file not at expected path: %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("host-1", "ledger.db.age", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != data {
		t.Errorf("GetSnapshot() = %q, want %q", buf.String(), data)
	}

	version, err := v.GetSnapshotVersion("host-1", "ledger.db.age")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 42 {
		t.Errorf("GetSnapshotVersion() = %d, want 42", version)
	}
}

func TestFileSystemVault_MissingSnapshot(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	version, err := v.GetSnapshotVersion("host-1", "ledger.db")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("GetSnapshotVersion() = %d, want 0", version)
	}

	var buf bytes.Buffer
	err = v.GetSnapshot("host-1", "ledger.db", &buf)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("GetSnapshot() error = %v, want not found", err)
	}
}

func TestFileSystemVault_SizeMismatchLeavesNoFile(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	if err := v.PutSnapshot("h", "ledger.db", strings.NewReader("abc"), 10, 1); err == nil {
		t.Fatal("PutSnapshot() expected size mismatch error")
	}

	entries, err := os.ReadDir(filepath.Join(root, "snapshots", "h"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("host directory has %d entries after failed put, want 0", len(entries))
	}
}

func TestFileSystemVault_RejectsPathTraversal(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	tests := []struct {
		host string
		name string
	}{
		{"..", "ledger.db"},
		{"h", "../escape"},
		{"", "ledger.db"},
		{"h", ""},
	}
	for _, tt := range tests {
		if err := v.PutSnapshot(tt.host, tt.name, strings.NewReader("x"), 1, 1); err == nil {
			t.Errorf("PutSnapshot(%q, %q) expected error", tt.host, tt.name)
		}
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if err := v.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() expected error after root removed")
	}
}
