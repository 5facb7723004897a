package testutil

import (
	"context"
	"sync"
	"time"

	"clipq/internal/clipq"
)

// Publish is one successful publish seen by FakePipeline.
type Publish struct {
	AccountID string
	SessionID string
	Name      string
	CatalogID string
}

// FakePipeline validates and publishes in memory. Behaviour is keyed by artifact name.
type FakePipeline struct {
	mu          sync.Mutex
	invalid     map[string]string
	validateErr map[string]error
	publishErr  map[string]error
	stepFail    map[string]bool
	published   []Publish

	// Delay is slept inside Publish to widen concurrency windows.
	Delay time.Duration
	// BeforePublish, if set, runs at the start of every Publish call.
	BeforePublish func(accountID, name string)
}

func NewFakePipeline() *FakePipeline {
	return &FakePipeline{
		invalid:     make(map[string]string),
		validateErr: make(map[string]error),
		publishErr:  make(map[string]error),
		stepFail:    make(map[string]bool),
	}
}

// Reject makes validation return OK=false for name.
func (p *FakePipeline) Reject(name, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalid[name] = reason
}

// FailValidate makes validation return err for name.
func (p *FakePipeline) FailValidate(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.validateErr[name] = err
}

// FailPublish makes Publish return err for name.
func (p *FakePipeline) FailPublish(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishErr[name] = err
}

// FailStep makes the last publish step report failure for name.
func (p *FakePipeline) FailStep(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stepFail[name] = true
}

func (p *FakePipeline) Validate(ctx context.Context, a *clipq.Artifact) (*clipq.Validation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.validateErr[a.Name()]; err != nil {
		return nil, err
	}
	if reason, ok := p.invalid[a.Name()]; ok {
		return &clipq.Validation{OK: false, Reason: reason}, nil
	}
	return &clipq.Validation{
		OK:      true,
		Catalog: clipq.CatalogInfo{CatalogID: a.CatalogID(), Title: a.Name()},
	}, nil
}

func (p *FakePipeline) Publish(ctx context.Context, session clipq.Session, a *clipq.Artifact, catalog clipq.CatalogInfo) (*clipq.PublishResult, error) {
	if p.BeforePublish != nil {
		p.BeforePublish(session.AccountID(), a.Name())
	}
	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.publishErr[a.Name()]; err != nil {
		return nil, err
	}
	res := &clipq.PublishResult{Steps: []clipq.StepResult{
		{Step: "upload", OK: true, Status: "uploaded"},
		{Step: "attach", OK: !p.stepFail[a.Name()], Status: "attached to " + catalog.CatalogID},
	}}
	if res.OK() {
		p.published = append(p.published, Publish{
			AccountID: session.AccountID(),
			SessionID: session.ID(),
			Name:      a.Name(),
			CatalogID: catalog.CatalogID,
		})
	}
	return res, nil
}

// Published returns successful publishes in order.
func (p *FakePipeline) Published() []Publish {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Publish(nil), p.published...)
}

// PublishedBy counts successful publishes per account.
func (p *FakePipeline) PublishedBy() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	counts := make(map[string]int)
	for _, pub := range p.published {
		counts[pub.AccountID]++
	}
	return counts
}

var _ clipq.PublishPipeline = (*FakePipeline)(nil)
