package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clipq/internal/clipq"
)

// ExecSessionProvider acquires and releases sessions through one hook:
//
//	<session_command> acquire <account-id>               -> {"session_id": "..."}
//	<session_command> release <account-id> <session-id>
//
// The hook owns the actual login and browser state; clipq only carries the ID.
type ExecSessionProvider struct {
	command string
	runner  *runner
}

var _ clipq.SessionProvider = (*ExecSessionProvider)(nil)

type execSession struct {
	id        string
	accountID string
}

func (s *execSession) ID() string        { return s.id }
func (s *execSession) AccountID() string { return s.accountID }

type acquireOutput struct {
	SessionID string `json:"session_id"`
}

func (p *ExecSessionProvider) Acquire(ctx context.Context, accountID string) (clipq.Session, error) {
	out, err := p.runner.run(ctx, p.command, map[string]string{
		"CLIPQ_ACCOUNT_ID": accountID,
	}, "acquire", accountID)
	if err != nil {
		return nil, fmt.Errorf("acquiring session for %s: %w", accountID, err)
	}

	var parsed acquireOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("acquiring session for %s: parsing hook output: %w", accountID, err)
	}
	if strings.TrimSpace(parsed.SessionID) == "" {
		return nil, fmt.Errorf("acquiring session for %s: hook returned no session_id", accountID)
	}

	return &execSession{id: parsed.SessionID, accountID: accountID}, nil
}

// Release is not bound to the batch context: a cancelled batch must still log out.
func (p *ExecSessionProvider) Release(session clipq.Session) error {
	_, err := p.runner.run(context.Background(), p.command, map[string]string{
		"CLIPQ_ACCOUNT_ID": session.AccountID(),
		"CLIPQ_SESSION_ID": session.ID(),
	}, "release", session.AccountID(), session.ID())
	if err != nil {
		return fmt.Errorf("releasing session %s: %w", session.ID(), err)
	}
	return nil
}
