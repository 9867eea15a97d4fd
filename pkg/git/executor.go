// Package git provides an abstraction layer for executing git commands
// with support for timeouts, context cancellation, and testing.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout is the default timeout for a single git operation.
const DefaultTimeout = 2 * time.Minute

// Executor defines the interface for running git commands.
// This abstraction allows for testing and timeout support.
type Executor interface {
	// Run executes a git command, discarding stdout.
	// A failing command returns a *CommandError carrying stderr.
	Run(ctx context.Context, args ...string) error

	// Output executes a git command and returns stdout.
	Output(ctx context.Context, args ...string) ([]byte, error)
}

// CommandError is returned when git exits unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

// DefaultExecutor implements Executor using exec.CommandContext.
type DefaultExecutor struct {
	// Dir is the working directory git runs in; empty means the process cwd.
	Dir     string
	Timeout time.Duration
}

// NewDefaultExecutor creates a new DefaultExecutor with the default timeout.
func NewDefaultExecutor(dir string) *DefaultExecutor {
	return &DefaultExecutor{Dir: dir, Timeout: DefaultTimeout}
}

// NewExecutorWithTimeout creates a new DefaultExecutor with a custom timeout.
// A zero timeout disables the deadline.
func NewExecutorWithTimeout(dir string, timeout time.Duration) *DefaultExecutor {
	return &DefaultExecutor{Dir: dir, Timeout: timeout}
}

// Run executes a git command and discards stdout.
func (e *DefaultExecutor) Run(ctx context.Context, args ...string) error {
	_, err := e.Output(ctx, args...)
	return err
}

// Output executes a git command and returns stdout.
func (e *DefaultExecutor) Output(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := e.contextWithTimeout(ctx)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = context.DeadlineExceeded
		}
		cmdErr := &CommandError{Args: args, ExitCode: -1, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		if cmdErr.Stderr == "" {
			// merge reports conflicts on stdout
			cmdErr.Stderr = stdout.String()
		}
		return stdout.Bytes(), cmdErr
	}
	return stdout.Bytes(), nil
}

// contextWithTimeout returns a context with the executor's timeout applied.
func (e *DefaultExecutor) contextWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.Timeout)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// ExitCode extracts git's exit code from err, or -1.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	type exitCoder interface {
		ExitCode() int
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}
