package clipq

import (
	"errors"
	"fmt"
	"sync"
)

// ErrQueueSeeded is returned when Seed is called on a queue that was already seeded.
var ErrQueueSeeded = errors.New("work queue already seeded")

// SeedResult reports how the input set was filtered into the queue.
type SeedResult struct {
	Queued           int
	AlreadyProcessed int
	Duplicates       int
	Unreadable       int
}

// WorkQueue is a FIFO of artifacts that have not been published yet.
// It is seeded once per batch and drained concurrently by account workers.
type WorkQueue struct {
	ledger Ledger
	fsmgr  FilesystemManager
	logger Logger

	mu     sync.Mutex
	items  []*Artifact
	seeded bool
}

// NewWorkQueue creates an empty queue that filters against ledger when seeded.
func NewWorkQueue(ledger Ledger, fsmgr FilesystemManager, logger Logger) *WorkQueue {
	return &WorkQueue{ledger: ledger, fsmgr: fsmgr, logger: logger}
}

// Seed fills the queue once. Artifacts already in the ledger, unreadable files,
// and same-content duplicates within the input set are left out.
// Fingerprinting and ledger lookups happen outside the queue lock.
func (q *WorkQueue) Seed(artifacts []*Artifact) (SeedResult, error) {
	q.mu.Lock()
	if q.seeded {
		q.mu.Unlock()
		return SeedResult{}, ErrQueueSeeded
	}
	q.seeded = true
	q.mu.Unlock()

	var res SeedResult
	seen := make(map[string]string, len(artifacts))
	items := make([]*Artifact, 0, len(artifacts))

	for _, a := range artifacts {
		fp, err := a.Fingerprint(q.fsmgr)
		if err != nil {
			q.logger.Warn("skipping unreadable artifact", "path", a.Path(), "error", err)
			res.Unreadable++
			continue
		}

		if first, dup := seen[fp]; dup {
			q.logger.Info("skipping duplicate content", "path", a.Path(), "same_as", first)
			res.Duplicates++
			continue
		}
		seen[fp] = a.Path()

		processed, err := q.ledger.IsProcessed(fp)
		if err != nil {
			return SeedResult{}, fmt.Errorf("checking ledger for %s: %w", a.Path(), err)
		}
		if processed {
			q.logger.Debug("already processed", "path", a.Path(), "fingerprint", fp)
			res.AlreadyProcessed++
			continue
		}

		items = append(items, a)
	}

	q.mu.Lock()
	q.items = items
	q.mu.Unlock()

	res.Queued = len(items)
	return res, nil
}

// Take pops the next artifact. It never blocks; ok is false once the queue is empty.
func (q *WorkQueue) Take() (a *Artifact, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	a = q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return a, true
}

// Len returns the number of artifacts still queued.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
