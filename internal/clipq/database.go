package clipq

import "clipq/internal/model"

// Ledger is the durable record of already-published content, keyed by fingerprint.
// It is the single source of truth for idempotence.
type Ledger interface {
	// IsProcessed reports whether the fingerprint has a ledger record,
	// regardless of its deleted flag.
	IsProcessed(fingerprint string) (bool, error)

	// Record upserts the ledger record and appends a publish-log entry for the
	// owning account in the same transaction. It returns only after the write
	// has been committed.
	Record(rec *model.LedgerRecord) error

	// MarkDeleted flips the deleted flag after the source file was removed.
	MarkDeleted(fingerprint string) error

	// FindRecord returns the record for a fingerprint, or nil if there is none.
	FindRecord(fingerprint string) (*model.LedgerRecord, error)

	// ListRecords returns the most recent records, newest first.
	ListRecords(limit int) ([]*model.LedgerRecord, error)
}

// QuotaStore reads the durable per-account publish log.
type QuotaStore interface {
	// PublishedCount returns how many publishes were recorded for an account in a period.
	PublishedCount(accountID string, period string) (int, error)
}

// Database is the full metadata store used by the application layer.
type Database interface {
	Ledger
	QuotaStore

	// CreateBatchRun starts a history row for a CLI operation.
	CreateBatchRun(operation string, parameters string) (*model.BatchRun, error)

	// FinishBatchRun closes a history row with a final status and summary text.
	FinishBatchRun(id int64, status string, summary string) error

	// ListBatchRuns returns the most recent history rows, newest first.
	ListBatchRuns(limit int) ([]*model.BatchRun, error)

	// MaxBatchRunID returns the highest batch run ID, or 0 if none exist.
	MaxBatchRunID() (int64, error)

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// Migrate applies pending migrations.
	Migrate() error

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(destPath string) error

	// Close closes the database connection.
	Close() error
}
