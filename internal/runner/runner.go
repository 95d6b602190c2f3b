// Package runner executes bounded-time subprocesses for the pipeline: the
// policy-scan engine and the Terraform lifecycle tool. Commands are never
// retried; lifecycle commands are not safely idempotent, so a retry must be
// an explicit caller decision.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultTimeout bounds a single subprocess invocation.
const DefaultTimeout = 10 * time.Minute

// Reason classifies a subprocess failure.
type Reason string

const (
	Timeout     Reason = "timeout"
	NotFound    Reason = "not_found"
	NonZeroExit Reason = "non_zero_exit"
)

// Error is a typed subprocess failure.
type Error struct {
	Reason Reason
	Cmd    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("run %s: %s: %v", e.Cmd, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result captures a finished subprocess. On NonZeroExit the Result is still
// returned alongside the error, since engines like checkov exit non-zero
// when they merely have findings to report.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes subprocesses with a per-invocation timeout.
type Runner struct {
	timeout time.Duration
	log     hclog.Logger
}

// New creates a Runner. timeout <= 0 selects DefaultTimeout.
func New(timeout time.Duration, log hclog.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout, log: log.Named("runner")}
}

// Run executes command with args in workDir. vars are serialized as
// repeated -var=key=value flags in sorted key order, matching the lifecycle
// tool's flag convention.
func (r *Runner) Run(ctx context.Context, workDir, command string, args []string, vars map[string]string) (*Result, error) {
	if _, err := exec.LookPath(command); err != nil {
		return nil, &Error{Reason: NotFound, Cmd: command, Err: err}
	}

	args = append(args, varFlags(vars)...)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.log.Debug("subprocess finished",
		"cmd", command, "args", args, "dir", workDir,
		"elapsed", time.Since(start), "exit_err", err)

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if err != nil {
		// Covers both the per-run deadline and caller cancellation; the
		// killed process must not surface as a command failure.
		if cerr := ctx.Err(); cerr != nil {
			return res, &Error{Reason: Timeout, Cmd: command, Err: cerr}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &Error{Reason: NonZeroExit, Cmd: command, Err: err}
		}
		return res, &Error{Reason: NotFound, Cmd: command, Err: err}
	}
	return res, nil
}

func varFlags(vars map[string]string) []string {
	if len(vars) == 0 {
		return nil
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	flags := make([]string, 0, len(keys))
	for _, k := range keys {
		flags = append(flags, fmt.Sprintf("-var=%s=%s", k, vars[k]))
	}
	return flags
}
