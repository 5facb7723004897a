package clipq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"clipq/internal/model"
)

// ErrNoAccounts is returned when a batch is started without any account.
var ErrNoAccounts = errors.New("no accounts to dispatch")

// BatchOptions bounds one batch run.
type BatchOptions struct {
	Concurrency int // maximum number of accounts working at once
	Target      int // maximum publishes per account per period
}

func (o BatchOptions) validate() error {
	if o.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", o.Concurrency)
	}
	if o.Target < 1 {
		return fmt.Errorf("per-account target must be at least 1, got %d", o.Target)
	}
	return nil
}

// batchRun is the ephemeral state of one Run call. It is never persisted.
type batchRun struct {
	id       string
	opts     BatchOptions
	queue    *WorkQueue
	total    int
	counters batchCounters
	observer Observer
	halt     context.CancelFunc

	mu       sync.Mutex
	fatalErr error
}

func (b *batchRun) status(format string, args ...any) {
	b.observer.OnStatus(fmt.Sprintf(format, args...))
}

// attempted counts one artifact attempt and reports progress.
func (b *batchRun) attempted() {
	n := b.counters.processed.Add(1)
	b.observer.OnProgress(int(n), b.total)
}

// fail records the first batch-fatal error and stops further dispatching.
// Active workers drain at their next iteration boundary.
func (b *batchRun) fail(err error) {
	b.mu.Lock()
	if b.fatalErr == nil {
		b.fatalErr = err
	}
	b.mu.Unlock()
	b.halt()
}

func (b *batchRun) err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fatalErr
}

// Scheduler runs a bounded pool of account workers over a shared work queue.
type Scheduler struct {
	ledger   Ledger
	quota    *QuotaTracker
	sessions SessionProvider
	pipeline PublishPipeline
	fsmgr    FilesystemManager
	observer Observer
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewScheduler creates a Scheduler with the provided collaborators.
// A nil observer is replaced by NopObserver.
func NewScheduler(ledger Ledger, quota *QuotaTracker, sessions SessionProvider, pipeline PublishPipeline, fsmgr FilesystemManager, observer Observer, logger Logger, clock Clock, idgen IDGenerator) *Scheduler {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Scheduler{
		ledger:   ledger,
		quota:    quota,
		sessions: sessions,
		pipeline: pipeline,
		fsmgr:    fsmgr,
		observer: observer,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// Run publishes artifacts through the given accounts and blocks until every
// worker has exited. Cancelling ctx stops new dispatches; active workers finish
// their current artifact and release their sessions.
//
// The returned summary is always non-nil once options are valid. The error is
// non-nil when the batch hit a batch-fatal failure.
func (s *Scheduler) Run(ctx context.Context, artifacts []*Artifact, accounts []model.Account, opts BatchOptions) (*Summary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	accounts = s.uniqueAccounts(accounts)
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	obs := &onceObserver{Observer: s.observer}
	summary := &Summary{
		BatchID:   s.idgen.New(),
		StartedAt: s.clock.Now(),
		Inputs:    len(artifacts),
	}

	s.logger.Info("batch started", "batch", summary.BatchID, "artifacts", len(artifacts), "accounts", len(accounts),
		"concurrency", opts.Concurrency, "target", opts.Target)

	queue := NewWorkQueue(s.ledger, s.fsmgr, s.logger)
	seed, err := queue.Seed(artifacts)
	if err != nil {
		summary.Err = fmt.Errorf("seeding work queue: %w", err)
		return s.finish(summary, obs), summary.Err
	}
	summary.Total = seed.Queued
	summary.AlreadyProcessed = seed.AlreadyProcessed
	summary.Duplicates = seed.Duplicates
	summary.Unreadable = seed.Unreadable
	obs.OnStatus(fmt.Sprintf("%d artifacts queued, %d already processed", seed.Queued, seed.AlreadyProcessed))

	pending := s.dispatchable(accounts, opts.Target, summary, obs)

	runCtx, halt := context.WithCancel(ctx)
	defer halt()

	b := &batchRun{
		id:       summary.BatchID,
		opts:     opts,
		queue:    queue,
		total:    seed.Queued,
		observer: obs,
		halt:     halt,
	}

	// Workers signal completion on done; that receive is the only point
	// where slots are freed and refilled.
	done := make(chan workerResult)
	active := 0
	launch := func() {
		acct := pending[0]
		pending = pending[1:]
		active++
		obs.OnStatus(fmt.Sprintf("dispatching account %s", acct.DisplayName()))
		s.logger.Info("account dispatched", "batch", b.id, "account", acct.ID)
		go func() {
			done <- s.runWorker(runCtx, b, acct)
		}()
	}
	canLaunch := func() bool {
		return len(pending) > 0 && runCtx.Err() == nil && queue.Len() > 0
	}

	for active < opts.Concurrency && canLaunch() {
		launch()
	}
	for active > 0 {
		res := <-done
		active--
		s.collect(summary, res)
		if canLaunch() {
			launch()
		}
	}

	for _, acct := range pending {
		summary.UndispatchedAccounts = append(summary.UndispatchedAccounts, acct.ID)
	}
	b.counters.fill(summary)
	summary.Cancelled = ctx.Err() != nil
	summary.Err = b.err()

	return s.finish(summary, obs), summary.Err
}

// runWorker runs one account worker and converts a panic into a batch-fatal error.
func (s *Scheduler) runWorker(ctx context.Context, b *batchRun, acct model.Account) (res workerResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker for account %s panicked: %v", acct.ID, r)
			s.logger.Error("worker panicked", "batch", b.id, "account", acct.ID, "panic", r)
			b.observer.OnError(err)
			b.fail(err)
			res = workerResult{account: acct, status: model.AccountInProgress, err: err}
		}
	}()

	acct.Status = model.AccountInProgress
	w := &accountWorker{s: s, batch: b, account: acct}
	return w.run(ctx)
}

// dispatchable filters out accounts whose quota is already met. A failed
// quota read leaves the account eligible.
func (s *Scheduler) dispatchable(accounts []model.Account, target int, summary *Summary, obs Observer) []model.Account {
	pending := make([]model.Account, 0, len(accounts))
	for _, acct := range accounts {
		snap, err := s.quota.Progress(acct.ID, target)
		if err != nil {
			s.logger.Warn("quota check failed, keeping account eligible", "account", acct.ID, "error", err)
			pending = append(pending, acct)
			continue
		}
		if snap.Complete {
			s.logger.Info("account already complete", "account", acct.ID, "published", snap.Published, "target", target)
			obs.OnStatus(fmt.Sprintf("%s: %s, skipped", acct.DisplayName(), snap.Status))
			summary.PreCompletedAccounts = append(summary.PreCompletedAccounts, acct.ID)
			continue
		}
		acct.Status = model.AccountEligible
		pending = append(pending, acct)
	}
	return pending
}

func (s *Scheduler) collect(summary *Summary, res workerResult) {
	switch {
	case res.status == model.AccountCompleted && res.err == nil:
		summary.CompletedAccounts = append(summary.CompletedAccounts, res.account.ID)
	case res.status == model.AccountEligible && res.err == nil:
		// Stopped before its session came up.
		summary.UndispatchedAccounts = append(summary.UndispatchedAccounts, res.account.ID)
	default:
		summary.FailedAccounts = append(summary.FailedAccounts, res.account.ID)
	}
}

// uniqueAccounts drops repeated account IDs so no account is ever worked twice at once.
func (s *Scheduler) uniqueAccounts(accounts []model.Account) []model.Account {
	seen := make(map[string]bool, len(accounts))
	out := make([]model.Account, 0, len(accounts))
	for _, acct := range accounts {
		if acct.ID == "" || seen[acct.ID] {
			s.logger.Warn("ignoring duplicate or empty account", "account", acct.ID)
			continue
		}
		seen[acct.ID] = true
		out = append(out, acct)
	}
	return out
}

func (s *Scheduler) finish(summary *Summary, obs Observer) *Summary {
	summary.FinishedAt = s.clock.Now()
	s.logger.Info("batch finished", "batch", summary.BatchID, "ok", summary.OK(), "summary", summary.String())
	obs.OnFinished(summary.OK(), summary.String())
	return summary
}
