package clipq

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Summary is the end-of-batch report.
type Summary struct {
	BatchID    string
	StartedAt  time.Time
	FinishedAt time.Time

	// Seeding
	Inputs           int // artifacts handed to the batch
	Total            int // artifacts queued after filtering
	AlreadyProcessed int // excluded because the ledger already has them
	Duplicates       int // excluded as same-content copies of another input
	Unreadable       int // excluded because they could not be fingerprinted

	// Work
	Processed    int // artifact attempts, successful or not
	Succeeded    int // successful publishes
	Failed       int // rejected or failed attempts
	Removed      int // source files deleted
	LedgerErrors int // publishes whose ledger write failed

	// Accounts
	PreCompletedAccounts []string // quota already met before dispatch
	CompletedAccounts    []string // worker ran to completion
	FailedAccounts       []string // worker could not start or aborted
	UndispatchedAccounts []string // never dispatched (cancelled, halted, or nothing left to do)

	Cancelled bool
	Err       error
}

// OK reports whether the batch finished without a batch-level failure.
func (s *Summary) OK() bool {
	return s.Err == nil && s.LedgerErrors == 0
}

// Remaining returns how many queued artifacts were never attempted.
func (s *Summary) Remaining() int {
	if n := s.Total - s.Processed; n > 0 {
		return n
	}
	return 0
}

// String renders the summary as one line for logs and notifications.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d published, %d failed, %d of %d queued processed, %d removed",
		s.Succeeded, s.Failed, s.Processed, s.Total, s.Removed)
	if s.AlreadyProcessed > 0 {
		fmt.Fprintf(&b, ", %d already processed", s.AlreadyProcessed)
	}
	if s.Duplicates > 0 {
		fmt.Fprintf(&b, ", %d duplicates", s.Duplicates)
	}
	if s.Unreadable > 0 {
		fmt.Fprintf(&b, ", %d unreadable", s.Unreadable)
	}
	fmt.Fprintf(&b, "; accounts: %d completed", len(s.CompletedAccounts))
	writeAccounts(&b, "failed", s.FailedAccounts)
	writeAccounts(&b, "pre-completed", s.PreCompletedAccounts)
	writeAccounts(&b, "not dispatched", s.UndispatchedAccounts)
	if s.LedgerErrors > 0 {
		fmt.Fprintf(&b, "; %d ledger errors", s.LedgerErrors)
	}
	if s.Cancelled {
		b.WriteString("; cancelled")
	}
	if s.Err != nil {
		fmt.Fprintf(&b, "; error: %v", s.Err)
	}
	return b.String()
}

func writeAccounts(b *strings.Builder, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(b, ", %d %s [%s]", len(ids), label, strings.Join(ids, ", "))
}

// batchCounters is the single owned aggregate of running totals.
// Workers only touch it through atomic increments.
type batchCounters struct {
	processed    atomic.Int64
	succeeded    atomic.Int64
	failed       atomic.Int64
	removed      atomic.Int64
	ledgerErrors atomic.Int64
}

func (c *batchCounters) fill(s *Summary) {
	s.Processed = int(c.processed.Load())
	s.Succeeded = int(c.succeeded.Load())
	s.Failed = int(c.failed.Load())
	s.Removed = int(c.removed.Load())
	s.LedgerErrors = int(c.ledgerErrors.Load())
}
