package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// Command is one invocation of an external recognition binary.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// CommandResult is what a finished command left behind. ExitCode is -1 when
// the process never started or was killed.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner lets engines that shell out be tested without the binary.
type Runner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}

// ExecRunner runs commands with os/exec and kills them when ctx ends.
//
// Logger gets one record per command: debug on success, error on failure
// with the tail of stderr attached. A nil Logger falls back to
// slog.Default(), so the engine that owns the runner should pass its own.
type ExecRunner struct {
	Logger *slog.Logger
	// MaxStderr caps the stderr kept in the failure log. Zero means 8 KiB.
	MaxStderr int
	// WaitDelay bounds the wait for output pipes after a kill. Zero means one second.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, c Command) (CommandResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxStderr := r.MaxStderr
	if maxStderr <= 0 {
		maxStderr = 8 << 10
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = time.Second
	}
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	res := CommandResult{Stdout: out.Bytes(), Stderr: errb.Bytes(), ExitCode: -1, Duration: time.Since(start)}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		logger.Debug("command ok",
			"cmd", c.Name,
			"args", strings.Join(c.Args, " "),
			"duration_ms", res.Duration.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
		return res, nil
	case errors.Is(err, exec.ErrNotFound):
		err = fmt.Errorf("%w: %s: %w", common.ErrEngineUnavailable, c.Name, err)
	case ctx.Err() != nil:
		// the kill shows up as "signal: killed"; callers test for the context error
		err = fmt.Errorf("%s: %w", c.Name, ctx.Err())
	}
	logger.Error("command failed",
		"cmd", c.Name,
		"args", strings.Join(c.Args, " "),
		"exit_code", res.ExitCode,
		"duration_ms", res.Duration.Milliseconds(),
		"error", err,
		"stderr", stderrTail(res.Stderr, maxStderr),
	)
	return res, err
}

// stderrTail keeps the last max bytes of b. Tools print the fatal line last.
func stderrTail(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return "(truncated)..." + s[len(s)-max:]
}
