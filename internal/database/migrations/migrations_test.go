package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"ledger_entries", "publishes", "batch_runs", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Fatal("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if v != 3 {
		t.Errorf("LatestVersion() = %d, want 3", v)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// A publish must reference an existing ledger entry.
	_, err := db.Exec(`
		INSERT INTO publishes (account_id, fingerprint, period, published_at)
		VALUES ('acct-1', 'missing', '2024-01-15', datetime('now'))
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_LedgerFingerprintUnique(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := "INSERT INTO ledger_entries (fingerprint, file_name, processed_at, account_id) VALUES ('fp-1', ?, datetime('now'), 'acct-1')"
	if _, err := db.Exec(insert, "a.mp4"); err != nil {
		t.Fatalf("Failed to insert first entry: %v", err)
	}
	if _, err := db.Exec(insert, "b.mp4"); err == nil {
		t.Error("Expected unique constraint violation for duplicate fingerprint, but insert succeeded")
	}
}

func TestSchema_LedgerDefaults(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec("INSERT INTO ledger_entries (fingerprint, file_name, processed_at, account_id) VALUES ('fp-1', 'a.mp4', datetime('now'), 'acct-1')")
	if err != nil {
		t.Fatalf("Failed to insert entry: %v", err)
	}

	var catalogID string
	var deleted bool
	if err := db.QueryRow("SELECT catalog_id, deleted FROM ledger_entries WHERE fingerprint = 'fp-1'").Scan(&catalogID, &deleted); err != nil {
		t.Fatalf("Failed to read entry: %v", err)
	}
	if catalogID != "" {
		t.Errorf("catalog_id = %q, want empty", catalogID)
	}
	if deleted {
		t.Error("deleted = true, want false")
	}
}

// openTestDB opens an in-memory SQLite database with foreign keys enabled.
// A single connection keeps every statement on the same in-memory database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
