package testutil

import (
	"sync"

	"clipq/internal/clipq"
)

// RecordingObserver captures every batch event for assertions.
type RecordingObserver struct {
	mu              sync.Mutex
	Statuses        []string
	Progress        [][2]int
	Deleted         []string
	AccountProgress map[string]int
	Errors          []error
	Finished        int
	FinishedOK      bool
	FinalSummary    string
}

func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{AccountProgress: make(map[string]int)}
}

func (o *RecordingObserver) OnProgress(processed, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Progress = append(o.Progress, [2]int{processed, total})
}

func (o *RecordingObserver) OnStatus(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Statuses = append(o.Statuses, msg)
}

func (o *RecordingObserver) OnArtifactDeleted(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Deleted = append(o.Deleted, path)
}

func (o *RecordingObserver) OnAccountProgress(accountID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.AccountProgress[accountID]++
}

func (o *RecordingObserver) OnError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Errors = append(o.Errors, err)
}

func (o *RecordingObserver) OnFinished(ok bool, summary string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Finished++
	o.FinishedOK = ok
	o.FinalSummary = summary
}

var _ clipq.Observer = (*RecordingObserver)(nil)
