package hooks

import (
	"fmt"
	"time"

	"clipq/internal/clipq"
	"clipq/internal/config"
)

// NewFromConfig builds the session provider and publish pipeline for the configured hook type.
func NewFromConfig(cfg config.HooksConfig, logger clipq.Logger) (clipq.SessionProvider, clipq.PublishPipeline, error) {
	switch cfg.Type {
	case "exec", "":
		if cfg.SessionCommand == "" || cfg.ValidateCommand == "" || cfg.PublishCommand == "" {
			return nil, nil, fmt.Errorf("exec hooks require session_command, validate_command and publish_command")
		}
		r := &runner{
			timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			logger:  logger,
		}
		sessions := &ExecSessionProvider{command: cfg.SessionCommand, runner: r}
		pipeline := &ExecPipeline{
			validateCommand: cfg.ValidateCommand,
			publishCommand:  cfg.PublishCommand,
			runner:          r,
		}
		return sessions, pipeline, nil
	default:
		return nil, nil, fmt.Errorf("unknown hooks type: %s", cfg.Type)
	}
}
