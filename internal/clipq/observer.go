package clipq

import "sync"

// Observer receives batch notifications for a UI or log surface.
// Implementations must be safe for concurrent use; workers call them directly.
type Observer interface {
	// OnProgress fires after each artifact attempt.
	OnProgress(processed, total int)
	// OnStatus carries one human-readable line per significant step.
	OnStatus(msg string)
	// OnArtifactDeleted fires after a source file was removed.
	OnArtifactDeleted(path string)
	// OnAccountProgress fires after each successful publish for an account.
	OnAccountProgress(accountID string)
	// OnError surfaces failures that must not be swallowed, like ledger writes.
	OnError(err error)
	// OnFinished fires once when the batch ends.
	OnFinished(ok bool, summary string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnProgress(int, int)      {}
func (NopObserver) OnStatus(string)          {}
func (NopObserver) OnArtifactDeleted(string) {}
func (NopObserver) OnAccountProgress(string) {}
func (NopObserver) OnError(error)            {}
func (NopObserver) OnFinished(bool, string)  {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnProgress(processed, total int) {
	for _, o := range m {
		o.OnProgress(processed, total)
	}
}

func (m MultiObserver) OnStatus(msg string) {
	for _, o := range m {
		o.OnStatus(msg)
	}
}

func (m MultiObserver) OnArtifactDeleted(path string) {
	for _, o := range m {
		o.OnArtifactDeleted(path)
	}
}

func (m MultiObserver) OnAccountProgress(accountID string) {
	for _, o := range m {
		o.OnAccountProgress(accountID)
	}
}

func (m MultiObserver) OnError(err error) {
	for _, o := range m {
		o.OnError(err)
	}
}

func (m MultiObserver) OnFinished(ok bool, summary string) {
	for _, o := range m {
		o.OnFinished(ok, summary)
	}
}

// onceObserver guarantees OnFinished is delivered at most once.
type onceObserver struct {
	Observer
	once sync.Once
}

func (o *onceObserver) OnFinished(ok bool, summary string) {
	o.once.Do(func() { o.Observer.OnFinished(ok, summary) })
}
