package clipq

import (
	"fmt"

	"clipq/internal/model"
)

// QuotaTracker derives per-account quota state for the current period from the
// durable publish log.
type QuotaTracker struct {
	store QuotaStore
	clock Clock
}

// NewQuotaTracker creates a tracker reading from store; periods come from clock.
func NewQuotaTracker(store QuotaStore, clock Clock) *QuotaTracker {
	return &QuotaTracker{store: store, clock: clock}
}

// Period returns the current quota period.
func (t *QuotaTracker) Period() string {
	return model.PeriodOf(t.clock.Now())
}

// Progress reports how far an account is towards target in the current period.
func (t *QuotaTracker) Progress(accountID string, target int) (model.QuotaSnapshot, error) {
	period := t.Period()
	count, err := t.store.PublishedCount(accountID, period)
	if err != nil {
		return model.QuotaSnapshot{}, fmt.Errorf("reading quota for %s: %w", accountID, err)
	}
	return newQuotaSnapshot(accountID, period, count, target), nil
}

func newQuotaSnapshot(accountID, period string, published, target int) model.QuotaSnapshot {
	snap := model.QuotaSnapshot{
		AccountID: accountID,
		Period:    period,
		Published: published,
		Target:    target,
		Complete:  published >= target,
	}
	if snap.Complete {
		snap.Status = fmt.Sprintf("quota reached (%d/%d on %s)", published, target, period)
	} else {
		snap.Status = fmt.Sprintf("%d/%d published on %s", published, target, period)
	}
	return snap
}
