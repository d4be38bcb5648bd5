// Package gitx provides helpers for executing git commands and parsing
// their output. It shells out to the installed git binary.
package gitx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Status classifies the outcome of one external git invocation.
type Status string

const (
	StatusOK         Status = "ok"
	StatusFailed     Status = "failed"
	StatusTimeout    Status = "timeout"
	StatusStartError Status = "start_error"
)

// Result is the captured outcome of one git command.
type Result struct {
	// Status classifies the outcome.
	Status Status
	// Output is the combined stdout/stderr text. For timeouts it is the
	// fixed timeout message; for start errors it is the OS error text.
	Output string
}

// OK reports whether the command exited successfully.
func (r Result) OK() bool { return r.Status == StatusOK }

// Runner executes git commands in a given repo directory.
// This interface allows mocking in tests. It is the single point where
// the process boundary is crossed; no other component spawns processes.
type Runner interface {
	// Run executes a git command in the given directory.
	Run(ctx context.Context, dir string, args ...string) Result
}

// DefaultTimeout bounds a single git command when the caller sets none.
const DefaultTimeout = 60 * time.Second

// ExecRunner is the default Runner implementation that shells out to git.
type ExecRunner struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
	// Timeout bounds each command. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Run executes one git command with interactive credential prompts
// disabled, capturing stdout and stderr interleaved in read order.
func (g *ExecRunner) Run(ctx context.Context, dir string, args ...string) Result {
	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err == nil {
		return Result{Status: StatusOK, Output: text}
	}
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return Result{Status: StatusTimeout, Output: timeoutMessage(timeout)}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if text == "" {
			text = err.Error()
		}
		return Result{Status: StatusFailed, Output: text}
	}
	// The process never started: binary missing, permissions, bad dir.
	return Result{Status: StatusStartError, Output: err.Error()}
}

func timeoutMessage(d time.Duration) string {
	return fmt.Sprintf("Timeout (%ds)", int(d/time.Second))
}
