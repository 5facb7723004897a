package clipq

import (
	"context"
	"fmt"

	"clipq/internal/model"
)

// workerResult is what an account worker hands back to the scheduler when it exits.
type workerResult struct {
	account   model.Account
	status    model.AccountStatus
	published int
	err       error
}

// accountWorker is the per-account control loop. It exclusively owns its
// session from acquisition until release.
type accountWorker struct {
	s       *Scheduler
	batch   *batchRun
	account model.Account

	published int
	// Last good quota reading plus publishes made since, used when the tracker fails.
	knownPublished int
	sinceKnown     int
}

// run acquires a session, drains artifacts until the account is done, and
// always releases the session before returning.
func (w *accountWorker) run(ctx context.Context) workerResult {
	name := w.account.DisplayName()
	w.batch.status("%s: acquiring session", name)

	session, err := w.s.sessions.Acquire(ctx, w.account.ID)
	if err != nil && ctx.Err() != nil {
		w.s.logger.Info("session acquisition stopped", "account", w.account.ID, "error", err)
		w.batch.status("%s: stopped before start", name)
		return workerResult{account: w.account, status: model.AccountEligible}
	}
	if err != nil {
		w.s.logger.Error("session acquisition failed", "account", w.account.ID, "error", err)
		w.batch.status("%s: failed to start: %v", name, err)
		return workerResult{account: w.account, status: model.AccountFailedToStart, err: err}
	}
	defer w.release(session)

	w.s.logger.Info("session acquired", "account", w.account.ID, "session", session.ID())

	reason := w.loop(ctx, session)
	w.s.logger.Info("account finished", "account", w.account.ID, "reason", reason, "published", w.published)
	w.batch.status("%s: finished (%s), %d published", name, reason, w.published)

	return workerResult{account: w.account, status: model.AccountCompleted, published: w.published}
}

func (w *accountWorker) loop(ctx context.Context, session Session) string {
	for {
		if ctx.Err() != nil {
			return "stopped"
		}
		if w.quotaComplete() {
			return "quota reached"
		}
		a, ok := w.batch.queue.Take()
		if !ok {
			return "queue empty"
		}
		if w.process(ctx, session, a) && w.quotaComplete() {
			return "quota reached"
		}
	}
}

func (w *accountWorker) release(session Session) {
	if err := w.s.sessions.Release(session); err != nil {
		w.s.logger.Warn("session release failed", "account", w.account.ID, "session", session.ID(), "error", err)
		return
	}
	w.s.logger.Debug("session released", "account", w.account.ID, "session", session.ID())
}

// quotaComplete checks the tracker. A tracker failure is logged and the account
// is treated as not complete, unless the local estimate already reaches the target.
func (w *accountWorker) quotaComplete() bool {
	target := w.batch.opts.Target

	snap, err := w.s.quota.Progress(w.account.ID, target)
	if err != nil {
		w.s.logger.Warn("quota check failed, continuing", "account", w.account.ID, "error", err)
		return w.knownPublished+w.sinceKnown >= target
	}

	w.knownPublished = snap.Published
	w.sinceKnown = 0
	return snap.Complete
}

// process runs one artifact through validate, publish and record.
// It reports whether the artifact was published.
func (w *accountWorker) process(ctx context.Context, session Session, a *Artifact) bool {
	defer w.batch.attempted()

	s := w.s
	name := w.account.DisplayName()
	// Pipeline steps are never interrupted mid-flight by cancellation.
	stepCtx := context.WithoutCancel(ctx)

	w.batch.status("%s: processing %s", name, a.Name())

	fp, err := a.Fingerprint(s.fsmgr)
	if err != nil {
		s.logger.Warn("fingerprint failed", "path", a.Path(), "error", err)
		w.batch.counters.failed.Add(1)
		return false
	}

	processed, err := s.ledger.IsProcessed(fp)
	if err != nil {
		s.logger.Error("ledger lookup failed, skipping artifact", "path", a.Path(), "error", err)
		w.batch.counters.failed.Add(1)
		return false
	}
	if processed {
		s.logger.Info("artifact already processed, skipping", "path", a.Path(), "fingerprint", fp)
		w.batch.status("%s: %s already processed, skipped", name, a.Name())
		return false
	}

	v, err := s.pipeline.Validate(stepCtx, a)
	if err != nil {
		s.logger.Warn("validation error, leaving artifact for a later run", "path", a.Path(), "error", err)
		w.batch.status("%s: %s could not be validated: %v", name, a.Name(), err)
		w.batch.counters.failed.Add(1)
		return false
	}
	if !v.OK {
		s.logger.Info("artifact rejected", "path", a.Path(), "reason", v.Reason)
		w.batch.status("%s: %s rejected: %s", name, a.Name(), v.Reason)
		w.batch.counters.failed.Add(1)
		w.remove(a, fp, false)
		return false
	}

	catalog := v.Catalog
	if catalog.CatalogID == "" {
		catalog.CatalogID = a.CatalogID()
	}

	res, err := s.pipeline.Publish(stepCtx, session, a, catalog)
	w.logSteps(a, res)
	if err == nil && !res.OK() {
		err = fmt.Errorf("publish steps did not all succeed")
	}
	if err != nil {
		s.logger.Warn("publish failed", "account", w.account.ID, "path", a.Path(), "error", err)
		w.batch.status("%s: %s publish failed: %v", name, a.Name(), err)
		w.batch.counters.failed.Add(1)
		return false
	}

	w.published++
	w.sinceKnown++
	w.batch.counters.succeeded.Add(1)

	rec := &model.LedgerRecord{
		Fingerprint: fp,
		FileName:    a.Name(),
		ProcessedAt: s.clock.Now(),
		AccountID:   w.account.ID,
		CatalogID:   catalog.CatalogID,
	}
	if err := s.ledger.Record(rec); err != nil {
		// The file stays on disk: deleted must always imply recorded.
		err = fmt.Errorf("recording %s in ledger: %w", a.Name(), err)
		s.logger.Error("ledger write failed after publish", "account", w.account.ID, "path", a.Path(), "fingerprint", fp, "error", err)
		w.batch.counters.ledgerErrors.Add(1)
		w.batch.observer.OnError(err)
		w.batch.fail(err)
		return true
	}

	s.logger.Info("artifact published", "account", w.account.ID, "path", a.Path(), "catalog_id", catalog.CatalogID, "fingerprint", fp)
	w.remove(a, fp, true)
	w.batch.observer.OnAccountProgress(w.account.ID)
	w.batch.status("%s: %s published", name, a.Name())
	return true
}

// remove deletes the artifact's backing file. For recorded artifacts the ledger's
// deleted flag is flipped afterwards.
func (w *accountWorker) remove(a *Artifact, fingerprint string, recorded bool) {
	s := w.s
	if err := s.fsmgr.Remove(a.Path()); err != nil {
		s.logger.Warn("removing artifact failed", "path", a.Path(), "error", err)
		return
	}
	w.batch.counters.removed.Add(1)

	if recorded {
		if err := s.ledger.MarkDeleted(fingerprint); err != nil {
			s.logger.Warn("marking ledger record deleted failed", "fingerprint", fingerprint, "error", err)
		}
	}
	w.batch.observer.OnArtifactDeleted(a.Path())
}

func (w *accountWorker) logSteps(a *Artifact, res *PublishResult) {
	if res == nil {
		return
	}
	for _, step := range res.Steps {
		if step.OK {
			w.s.logger.Debug("publish step", "account", w.account.ID, "path", a.Path(), "step", step.Step, "status", step.Status)
		} else {
			w.s.logger.Warn("publish step failed", "account", w.account.ID, "path", a.Path(), "step", step.Step, "status", step.Status)
		}
	}
}
