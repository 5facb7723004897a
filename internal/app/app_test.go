package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipq/internal/clipq"
	"clipq/internal/config"
	"clipq/internal/database"
	"clipq/internal/encryption"
	"clipq/internal/testutil"
	"clipq/internal/vault"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()

	cfg := config.NewConfig("host-1", base)
	cfg.InputDir = filepath.Join(base, "in")
	cfg.Encryption.Type = "test"
	cfg.Batch = config.BatchConfig{Concurrency: 2, Target: 2}
	cfg.Accounts = []config.AccountConfig{{ID: "shop-a"}, {ID: "shop-b", Name: "Shop B"}}
	cfg.Vaults = []config.VaultConfig{{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(base, "vault")}}

	if err := os.MkdirAll(cfg.InputDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := MigrateDatabase(cfg); err != nil {
		t.Fatalf("MigrateDatabase() error = %v", err)
	}
	return cfg
}

func writeVideos(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%07d_clip.mp4", 1000000+i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(fmt.Sprintf("video-%d", i)), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a video"), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestApp(t *testing.T, cfg *config.Config, operation string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := NewApp(cfg, Options{
		Operation: operation,
		Out:       &out,
		Sessions:  testutil.NewFakeSessionProvider(),
		Pipeline:  testutil.NewFakePipeline(),
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	return a, &out
}

func snapshotVersion(t *testing.T, cfg *config.Config) int64 {
	t.Helper()
	v, err := vault.NewFileSystemVault("local", cfg.Vaults[0].FSVaultRoot)
	if err != nil {
		t.Fatal(err)
	}
	version, err := v.GetSnapshotVersion(cfg.HostID, database.LedgerFileName+".test")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	return version
}

func countFiles(t *testing.T, dir, ext string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		t.Fatal(err)
	}
	return len(matches)
}

func TestApp_RunBatch(t *testing.T) {
	cfg := testConfig(t)
	writeVideos(t, cfg.InputDir, 5)

	a, out := newTestApp(t, cfg, "run")
	summary, err := a.RunBatch(context.Background(), "", false, clipq.BatchOptions{})
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if summary.Succeeded != 4 {
		t.Errorf("Succeeded = %d, want 4", summary.Succeeded)
	}
	if got := a.Published(); got["shop-a"] != 2 || got["shop-b"] != 2 {
		t.Errorf("Published() = %v", got)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := countFiles(t, cfg.InputDir, ".mp4"); got != 1 {
		t.Errorf("%d videos left, want 1", got)
	}
	if got := countFiles(t, cfg.InputDir, ".txt"); got != 1 {
		t.Error("non-video file was touched")
	}
	if !strings.Contains(out.String(), "done:") {
		t.Errorf("console output missing final line:\n%s", out.String())
	}
	if got := snapshotVersion(t, cfg); got != 1 {
		t.Errorf("vault snapshot version = %d, want 1", got)
	}

	b, _ := newTestApp(t, cfg, "history")
	defer b.Close()

	runs, err := b.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d batch runs, want 1", len(runs))
	}
	if runs[0].Status != StatusSuccess || !runs[0].FinishedAt.Valid {
		t.Errorf("batch run = %+v", runs[0])
	}
	if !strings.Contains(runs[0].Parameters, "concurrency=2 target=2") {
		t.Errorf("Parameters = %q", runs[0].Parameters)
	}

	snaps, err := b.GetQuota()
	if err != nil {
		t.Fatalf("GetQuota() error = %v", err)
	}
	for _, s := range snaps {
		if !s.Complete {
			t.Errorf("account %s quota = %+v, want complete", s.AccountID, s)
		}
	}
}

func TestApp_LedgerBehindVault(t *testing.T) {
	cfg := testConfig(t)
	writeVideos(t, cfg.InputDir, 3)

	a, _ := newTestApp(t, cfg, "run")
	if _, err := a.RunBatch(context.Background(), "", false, clipq.BatchOptions{}); err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Simulate a fresh machine: the local ledger is gone.
	if err := os.Remove(filepath.Join(cfg.Database.DataDir, database.LedgerFileName)); err != nil {
		t.Fatal(err)
	}
	if err := MigrateDatabase(cfg); err != nil {
		t.Fatal(err)
	}

	_, err := NewApp(cfg, Options{Operation: "run", Out: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "ledger restore") {
		t.Fatalf("NewApp() error = %v, want ledger behind error", err)
	}

	asked := 0
	version, err := RestoreLedger(cfg, func() (string, error) {
		asked++
		return "secret", nil
	})
	if err != nil {
		t.Fatalf("RestoreLedger() error = %v", err)
	}
	if version != 1 || asked != 1 {
		t.Errorf("RestoreLedger() version = %d, passphrase asked %d times", version, asked)
	}

	b, _ := newTestApp(t, cfg, "ledger list")
	defer b.Close()
	recs, err := b.GetLedger(10)
	if err != nil {
		t.Fatalf("GetLedger() error = %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("restored ledger has %d records, want 3", len(recs))
	}
}

func TestRestoreLedger_NoSnapshot(t *testing.T) {
	cfg := testConfig(t)
	if _, err := RestoreLedger(cfg, nil); err == nil || !strings.Contains(err.Error(), "no ledger snapshot") {
		t.Errorf("RestoreLedger() error = %v", err)
	}
}

func TestApp_RunBatchRefusesWhenLocked(t *testing.T) {
	cfg := testConfig(t)
	writeVideos(t, cfg.InputDir, 1)

	lock, err := AcquireRunLock(cfg.Database.DataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	a, _ := newTestApp(t, cfg, "run")
	defer a.Close()
	if _, err := a.RunBatch(context.Background(), "", false, clipq.BatchOptions{}); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("RunBatch() error = %v, want lock error", err)
	}
	if countFiles(t, cfg.InputDir, ".mp4") != 1 {
		t.Error("files touched while the ledger was locked")
	}
}

func TestApp_ReadOnlyCommandsDoNotSnapshot(t *testing.T) {
	cfg := testConfig(t)
	writeVideos(t, cfg.InputDir, 2)

	a, _ := newTestApp(t, cfg, "status")
	statuses, err := a.GetStatus("", false)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if len(statuses) != 2 {
		t.Errorf("got %d statuses, want 2 (videos only)", len(statuses))
	}
	for _, s := range statuses {
		if s.IsProcessed {
			t.Errorf("%s reported processed", s.RelativePath)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := snapshotVersion(t, cfg); got != 0 {
		t.Errorf("snapshot version = %d after read-only command, want 0", got)
	}
}

func TestApp_RunBatchRequiresHooks(t *testing.T) {
	cfg := testConfig(t)
	writeVideos(t, cfg.InputDir, 1)

	a, err := NewApp(cfg, Options{Operation: "run", Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer a.Close()

	if _, err := a.RunBatch(context.Background(), "", false, clipq.BatchOptions{}); err == nil || !strings.Contains(err.Error(), "hooks") {
		t.Errorf("RunBatch() error = %v, want hooks error", err)
	}
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Batch.Concurrency = 0
	if _, err := NewApp(cfg, Options{}); err == nil {
		t.Error("NewApp() expected error for zero concurrency")
	}
}

func TestNewApp_RequiresMigratedDatabase(t *testing.T) {
	cfg := config.NewConfig("host-1", t.TempDir())
	cfg.Encryption.Type = "none"
	if _, err := NewApp(cfg, Options{}); err == nil || !strings.Contains(err.Error(), "db migrate") {
		t.Errorf("NewApp() error = %v, want migrate hint", err)
	}
}

func TestAccountsFromConfig(t *testing.T) {
	got := accountsFromConfig([]config.AccountConfig{{ID: "a"}, {ID: "b", Name: "Shop B"}})
	if len(got) != 2 {
		t.Fatalf("got %d accounts, want 2", len(got))
	}
	if got[0].DisplayName() != "a" || got[1].DisplayName() != "Shop B" {
		t.Errorf("accounts = %+v", got)
	}
}

func TestInitKeys(t *testing.T) {
	cfg := config.NewConfig("host-1", t.TempDir())

	if err := InitKeys(cfg, "correct horse"); err != nil {
		t.Fatalf("InitKeys() error = %v", err)
	}
	if !encryption.NewAgeEncryptor(cfg.Encryption).IsConfigured() {
		t.Error("encryptor not configured after InitKeys")
	}
	if err := InitKeys(cfg, "correct horse"); err == nil {
		t.Error("second InitKeys() should refuse to replace keys")
	}
}
