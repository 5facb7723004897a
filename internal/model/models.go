package model

import (
	"database/sql"
	"time"
)

// AccountStatus is the lifecycle state of an account within one batch.
type AccountStatus string

const (
	AccountEligible      AccountStatus = "eligible"
	AccountInProgress    AccountStatus = "in-progress"
	AccountCompleted     AccountStatus = "completed"
	AccountFailedToStart AccountStatus = "failed-to-start"
)

// Account is a named remote identity that publishes artifacts through its own session.
type Account struct {
	ID     string // Stable identifier passed to the session provider
	Name   string // Display name; falls back to ID
	Status AccountStatus
}

// DisplayName returns Name, or ID when no name is set.
func (a Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// LedgerRecord is the durable proof that content with a given fingerprint was published.
// A record with Deleted=false or Deleted=true both mean "already processed";
// Deleted only tracks whether the source file was removed afterwards.
type LedgerRecord struct {
	Fingerprint string    // SHA-256 of the full file content
	FileName    string    // Base name of the file when it was published
	ProcessedAt time.Time // When the publish was recorded
	AccountID   string    // Account that published it
	CatalogID   string    // Catalog identifier derived from the file name
	Deleted     bool      // Whether the source file has been removed
}

// QuotaSnapshot is the derived per-account quota state for one period.
type QuotaSnapshot struct {
	AccountID string
	Period    string
	Published int
	Target    int
	Complete  bool
	Status    string
}

// BatchRun is the persisted history row of one CLI operation.
type BatchRun struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
	Summary    string
}

// PeriodOf returns the quota period a timestamp falls into: its calendar day
// in the timestamp's own location.
func PeriodOf(t time.Time) string {
	return t.Format("2006-01-02")
}
