package clipq

import "context"

// Session is an authenticated, stateful remote handle bound to one account.
// A session is owned by exactly one account worker for its whole lifetime.
type Session interface {
	ID() string
	AccountID() string
}

// SessionProvider hands out and tears down sessions.
type SessionProvider interface {
	// Acquire returns a ready, authenticated session for the account.
	Acquire(ctx context.Context, accountID string) (Session, error)

	// Release tears the session down. It is called on every worker exit path.
	Release(session Session) error
}

// CatalogInfo is what validation learned about an artifact's remote catalog entry.
type CatalogInfo struct {
	CatalogID string
	Title     string
}

// Validation is the outcome of PublishPipeline.Validate.
// OK=false means the artifact is permanently ineligible; Reason says why.
type Validation struct {
	OK      bool
	Catalog CatalogInfo
	Reason  string
}

// StepResult is the outcome of one remote publish step.
type StepResult struct {
	Step   string
	OK     bool
	Status string
}

// PublishResult aggregates the ordered step results of one publish.
type PublishResult struct {
	Steps []StepResult
}

// OK reports whether every step succeeded.
func (r *PublishResult) OK() bool {
	if r == nil || len(r.Steps) == 0 {
		return false
	}
	for _, s := range r.Steps {
		if !s.OK {
			return false
		}
	}
	return true
}

// PublishPipeline performs the site-specific remote work for one artifact.
type PublishPipeline interface {
	// Validate decides whether the artifact may be published.
	// A non-nil error is a transient failure; the artifact is left for a later run.
	Validate(ctx context.Context, artifact *Artifact) (*Validation, error)

	// Publish runs the ordered remote steps using the worker's session.
	// A non-nil error, or a result whose OK() is false, is a publish failure.
	Publish(ctx context.Context, session Session, artifact *Artifact, catalog CatalogInfo) (*PublishResult, error)
}
