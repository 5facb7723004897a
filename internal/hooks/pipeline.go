package hooks

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clipq/internal/clipq"
)

// ExecPipeline validates and publishes artifacts through two hooks.
//
// Validation:
//
//	<validate_command> <path> <catalog-id>
//	  -> {"ok": true, "catalog_id": "...", "title": "...", "reason": "..."}
//
// A non-zero exit is a transient failure. "ok": false marks the artifact invalid.
//
// Publishing:
//
//	<publish_command> <session-id> <account-id> <path> <catalog-id> <title>
//	  -> one JSON object per line: {"step": "upload", "ok": true, "status": "..."}
//
// Every step line is reported even when the hook later exits non-zero. Lines
// that are not step objects (progress output and the like) are logged and skipped.
type ExecPipeline struct {
	validateCommand string
	publishCommand  string
	runner          *runner
}

var _ clipq.PublishPipeline = (*ExecPipeline)(nil)

type validateOutput struct {
	OK        bool   `json:"ok"`
	CatalogID string `json:"catalog_id"`
	Title     string `json:"title"`
	Reason    string `json:"reason"`
}

type stepOutput struct {
	Step   string `json:"step"`
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

func (p *ExecPipeline) Validate(ctx context.Context, artifact *clipq.Artifact) (*clipq.Validation, error) {
	out, err := p.runner.run(ctx, p.validateCommand, map[string]string{
		"CLIPQ_FILE":       artifact.Path(),
		"CLIPQ_CATALOG_ID": artifact.CatalogID(),
	}, artifact.Path(), artifact.CatalogID())
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", artifact.Name(), err)
	}

	var parsed validateOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("validating %s: parsing hook output: %w", artifact.Name(), err)
	}

	catalogID := parsed.CatalogID
	if catalogID == "" {
		catalogID = artifact.CatalogID()
	}
	return &clipq.Validation{
		OK:      parsed.OK,
		Catalog: clipq.CatalogInfo{CatalogID: catalogID, Title: parsed.Title},
		Reason:  parsed.Reason,
	}, nil
}

func (p *ExecPipeline) Publish(ctx context.Context, session clipq.Session, artifact *clipq.Artifact, catalog clipq.CatalogInfo) (*clipq.PublishResult, error) {
	out, runErr := p.runner.run(ctx, p.publishCommand, map[string]string{
		"CLIPQ_ACCOUNT_ID": session.AccountID(),
		"CLIPQ_SESSION_ID": session.ID(),
		"CLIPQ_FILE":       artifact.Path(),
		"CLIPQ_CATALOG_ID": catalog.CatalogID,
	}, session.ID(), session.AccountID(), artifact.Path(), catalog.CatalogID, catalog.Title)

	result := parseSteps(out, func(line string) {
		p.runner.logger.Warn("ignoring non-step publish output", "file", artifact.Name(), "line", line)
	})
	if runErr != nil {
		return result, fmt.Errorf("publishing %s: %w", artifact.Name(), runErr)
	}
	if len(result.Steps) == 0 {
		return result, fmt.Errorf("publishing %s: hook reported no steps", artifact.Name())
	}
	return result, nil
}

// parseSteps reads JSON step lines. Blank lines are skipped and any other
// line that is not a step object is handed to skip.
func parseSteps(out []byte, skip func(line string)) *clipq.PublishResult {
	result := &clipq.PublishResult{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	// out is fully buffered, so no line can be longer than out itself.
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), max(len(out)+1, bufio.MaxScanTokenSize))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var step stepOutput
		if err := json.Unmarshal([]byte(line), &step); err != nil || step.Step == "" {
			skip(line)
			continue
		}
		result.Steps = append(result.Steps, clipq.StepResult{
			Step:   step.Step,
			OK:     step.OK,
			Status: step.Status,
		})
	}
	return result
}
