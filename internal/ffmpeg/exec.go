package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
)

// Result is the outcome of one external tool invocation.
// The streams are kept apart: ffprobe reports values on stdout while
// FFmpeg-family tools write diagnostics to stderr, even on success.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// diagnostics returns the text worth showing when the tool failed.
func (r Result) diagnostics() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner runs an external tool to completion and captures its exit status
// and diagnostics. The call blocks until the process exits or ctx is done.
type Runner interface {
	Run(ctx context.Context, tool string, args []string) (Result, error)
}

// ---------------------------------------------------------------------------
// Executor - testable tool execution with dependency injection
// ---------------------------------------------------------------------------

// runFn is the function type for running a command and capturing output.
type runFn func(ctx context.Context, tool string, args []string) (Result, error)

// Executor runs FFmpeg-family tools with injectable dependencies.
type Executor struct {
	run runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunFunc sets a custom run function (for testing).
func WithRunFunc(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		run: defaultRun,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes tool with args. A non-zero exit or a start failure is reported
// as a *SubprocessError that carries the captured output.
func (e *Executor) Run(ctx context.Context, tool string, args []string) (Result, error) {
	res, err := e.run(ctx, tool, args)
	if err == nil && res.ExitCode == 0 {
		return res, nil
	}
	code := res.ExitCode
	if err != nil && code == 0 {
		code = -1
	}
	return res, &SubprocessError{
		Tool:     filepath.Base(tool),
		Args:     append([]string(nil), args...),
		ExitCode: code,
		Output:   res.diagnostics(),
		Err:      err,
	}
}

// defaultRun is the production implementation.
func defaultRun(ctx context.Context, tool string, args []string) (Result, error) {
	// #nosec G204 -- tool path comes from the resolver, args are built internally
	cmd := exec.CommandContext(ctx, tool, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		res.ExitCode = exitErr.ExitCode()
		return res, err
	}
	// Start failure, or killed by a signal after context cancellation.
	res.ExitCode = -1
	return res, err
}

// Compile-time interface verification.
var _ Runner = (*Executor)(nil)
