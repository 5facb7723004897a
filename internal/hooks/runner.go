package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"clipq/internal/clipq"
)

// CommandError is returned when a hook exits unsuccessfully.
// Stderr holds the trimmed standard error of the hook.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("hook %s failed (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("hook %s failed (exit %d): %v", e.Command, e.ExitCode, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// runner executes hook commands. A command line is split on whitespace; the
// first field is the executable and the rest are leading arguments.
type runner struct {
	timeout time.Duration
	logger  clipq.Logger
}

func (r *runner) run(ctx context.Context, commandLine string, env map[string]string, args ...string) ([]byte, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("hook command is not configured")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	argv := append(fields[1:len(fields):len(fields)], args...)
	cmd := exec.CommandContext(ctx, fields[0], argv...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren may hold the output pipes open after the hook is killed.
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("hook finished", "command", fields[0], "args", strings.Join(argv, " "),
		"duration", time.Since(start).Round(time.Millisecond), "error", err)

	if err != nil {
		cerr := &CommandError{
			Command:  fields[0],
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			cerr.Err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return stdout.Bytes(), cerr
	}
	return stdout.Bytes(), nil
}
