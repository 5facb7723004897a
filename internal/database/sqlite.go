package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clipq/internal/clipq"
	"clipq/internal/database/migrations"
	"clipq/internal/database/sqlc"
	"clipq/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the clipq.Database interface using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    "",
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
//
// The pool is limited to one connection. Workers record concurrently and SQLite
// allows a single writer anyway; one connection also keeps ":memory:" databases
// from splitting into one empty database per connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// SQLite default is OFF for backward compatibility
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Another clipq process (status, ledger list) may hold the file briefly.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Ledger operations

func (s *SQLiteDatabase) IsProcessed(fingerprint string) (bool, error) {
	exists, err := s.queries.LedgerEntryExists(context.Background(), fingerprint)
	if err != nil {
		return false, fmt.Errorf("checking ledger for %s: %w", fingerprint, err)
	}
	return exists != 0, nil
}

func (s *SQLiteDatabase) Record(rec *model.LedgerRecord) error {
	if rec == nil || rec.Fingerprint == "" {
		return fmt.Errorf("recording ledger entry: fingerprint is required")
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	err = qtx.UpsertLedgerEntry(ctx, sqlc.UpsertLedgerEntryParams{
		Fingerprint: rec.Fingerprint,
		FileName:    rec.FileName,
		ProcessedAt: rec.ProcessedAt,
		AccountID:   rec.AccountID,
		CatalogID:   rec.CatalogID,
		Deleted:     rec.Deleted,
	})
	if err != nil {
		return fmt.Errorf("upserting ledger entry: %w", err)
	}

	err = qtx.InsertPublish(ctx, sqlc.InsertPublishParams{
		AccountID:   rec.AccountID,
		Fingerprint: rec.Fingerprint,
		Period:      model.PeriodOf(rec.ProcessedAt),
		PublishedAt: rec.ProcessedAt,
	})
	if err != nil {
		return fmt.Errorf("appending publish: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger entry: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) MarkDeleted(fingerprint string) error {
	n, err := s.queries.MarkLedgerEntryDeleted(context.Background(), fingerprint)
	if err != nil {
		return fmt.Errorf("marking %s deleted: %w", fingerprint, err)
	}
	if n == 0 {
		return fmt.Errorf("marking %s deleted: no ledger entry", fingerprint)
	}
	return nil
}

func (s *SQLiteDatabase) FindRecord(fingerprint string) (*model.LedgerRecord, error) {
	entry, err := s.queries.GetLedgerEntry(context.Background(), fingerprint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding ledger entry: %w", err)
	}
	return toLedgerRecord(entry), nil
}

func (s *SQLiteDatabase) ListRecords(limit int) ([]*model.LedgerRecord, error) {
	entries, err := s.queries.ListLedgerEntries(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}

	result := make([]*model.LedgerRecord, len(entries))
	for i, entry := range entries {
		result[i] = toLedgerRecord(entry)
	}
	return result, nil
}

// Quota operations

func (s *SQLiteDatabase) PublishedCount(accountID string, period string) (int, error) {
	n, err := s.queries.CountPublishes(context.Background(), sqlc.CountPublishesParams{
		AccountID: accountID,
		Period:    period,
	})
	if err != nil {
		return 0, fmt.Errorf("counting publishes for %s: %w", accountID, err)
	}
	return int(n), nil
}

// Batch run history

func (s *SQLiteDatabase) CreateBatchRun(operation string, parameters string) (*model.BatchRun, error) {
	run := &model.BatchRun{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  time.Now(),
		Status:     "running",
	}

	id, err := s.queries.InsertBatchRun(context.Background(), sqlc.InsertBatchRunParams{
		Operation:  run.Operation,
		Parameters: run.Parameters,
		StartedAt:  run.StartedAt,
		Status:     run.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("creating batch run: %w", err)
	}
	run.ID = id
	return run, nil
}

func (s *SQLiteDatabase) FinishBatchRun(id int64, status string, summary string) error {
	err := s.queries.FinishBatchRun(context.Background(), sqlc.FinishBatchRunParams{
		FinishedAt: sql.NullTime{Time: time.Now(), Valid: true},
		Status:     status,
		Summary:    summary,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing batch run: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListBatchRuns(limit int) ([]*model.BatchRun, error) {
	runs, err := s.queries.ListBatchRuns(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing batch runs: %w", err)
	}

	result := make([]*model.BatchRun, len(runs))
	for i, r := range runs {
		result[i] = &model.BatchRun{
			ID:         r.ID,
			Operation:  r.Operation,
			Parameters: r.Parameters,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			Status:     r.Status,
			Summary:    r.Summary,
		}
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxBatchRunID() (int64, error) {
	id, err := s.queries.MaxBatchRunID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max batch run ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate applies all pending migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func toLedgerRecord(entry sqlc.LedgerEntry) *model.LedgerRecord {
	return &model.LedgerRecord{
		Fingerprint: entry.Fingerprint,
		FileName:    entry.FileName,
		ProcessedAt: entry.ProcessedAt,
		AccountID:   entry.AccountID,
		CatalogID:   entry.CatalogID,
		Deleted:     entry.Deleted,
	}
}

// Compile-time check that SQLiteDatabase implements clipq.Database interface
var _ clipq.Database = (*SQLiteDatabase)(nil)
