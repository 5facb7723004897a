package testutil

import (
	"errors"
	"sync/atomic"
	"testing"

	"clipq/internal/clipq"
	"clipq/internal/database"
	"clipq/internal/model"
)

// NewTestDatabase creates a new in-memory SQLite database with migrations applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) clipq.Database {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// ErrInjected is returned by FlakyDatabase for operations switched to fail.
var ErrInjected = errors.New("injected failure")

// FlakyDatabase wraps a Database and fails selected operations on demand.
type FlakyDatabase struct {
	clipq.Database

	FailRecord      atomic.Bool
	FailQuota       atomic.Bool
	FailIsProcessed atomic.Bool
}

// NewFlakyDatabase wraps db; every operation passes through until switched off.
func NewFlakyDatabase(db clipq.Database) *FlakyDatabase {
	return &FlakyDatabase{Database: db}
}

func (f *FlakyDatabase) Record(rec *model.LedgerRecord) error {
	if f.FailRecord.Load() {
		return ErrInjected
	}
	return f.Database.Record(rec)
}

func (f *FlakyDatabase) PublishedCount(accountID string, period string) (int, error) {
	if f.FailQuota.Load() {
		return 0, ErrInjected
	}
	return f.Database.PublishedCount(accountID, period)
}

func (f *FlakyDatabase) IsProcessed(fingerprint string) (bool, error) {
	if f.FailIsProcessed.Load() {
		return false, ErrInjected
	}
	return f.Database.IsProcessed(fingerprint)
}
