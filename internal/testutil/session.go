package testutil

import (
	"context"
	"fmt"
	"sync"

	"clipq/internal/clipq"
)

// FakeSessionProvider hands out in-memory sessions and tracks how many are
// held at once, so tests can assert the concurrency bound.
type FakeSessionProvider struct {
	// OnAcquire, if set, runs at the start of every Acquire.
	OnAcquire func(accountID string)

	mu         sync.Mutex
	fail       map[string]error
	held       map[string]bool
	active     int
	maxActive  int
	acquired   []string
	released   []string
	doubleHeld bool
	seq        int
}

func NewFakeSessionProvider() *FakeSessionProvider {
	return &FakeSessionProvider{
		fail: make(map[string]error),
		held: make(map[string]bool),
	}
}

// FailAccount makes Acquire fail for accountID.
func (p *FakeSessionProvider) FailAccount(accountID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[accountID] = err
}

type fakeSession struct {
	id        string
	accountID string
}

func (s *fakeSession) ID() string        { return s.id }
func (s *fakeSession) AccountID() string { return s.accountID }

func (p *FakeSessionProvider) Acquire(ctx context.Context, accountID string) (clipq.Session, error) {
	if p.OnAcquire != nil {
		p.OnAcquire(accountID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.fail[accountID]; err != nil {
		return nil, err
	}
	if p.held[accountID] {
		p.doubleHeld = true
	}
	p.held[accountID] = true
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.seq++
	p.acquired = append(p.acquired, accountID)
	return &fakeSession{id: fmt.Sprintf("session-%d", p.seq), accountID: accountID}, nil
}

func (p *FakeSessionProvider) Release(session clipq.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.held[session.AccountID()] = false
	p.active--
	p.released = append(p.released, session.AccountID())
	return nil
}

// MaxActive returns the highest number of sessions held at the same time.
func (p *FakeSessionProvider) MaxActive() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxActive
}

// Active returns the number of sessions currently held.
func (p *FakeSessionProvider) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Acquired returns account IDs in acquisition order.
func (p *FakeSessionProvider) Acquired() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.acquired...)
}

// Released returns account IDs in release order.
func (p *FakeSessionProvider) Released() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.released...)
}

// DoubleHeld reports whether any account ever held two sessions at once.
func (p *FakeSessionProvider) DoubleHeld() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doubleHeld
}

var _ clipq.SessionProvider = (*FakeSessionProvider)(nil)
