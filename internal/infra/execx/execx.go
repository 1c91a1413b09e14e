// Package execx runs external tool processes with timeout handling and
// structured failure classification.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// Classified execution errors.
var (
	ErrTimeout     = errors.New("command timed out")
	ErrNotFound    = errors.New("command not found")
	ErrNonZeroExit = errors.New("command exited with non-zero status")
)

// Spec describes one external command invocation.
type Spec struct {
	Name string
	Args []string
	Dir  string
	Env  []string // appended to the parent environment
}

// Result holds the execution result.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Run executes a command under the given context. The process is
// killed when the context deadline elapses; the returned error then
// wraps ErrTimeout. A missing binary wraps ErrNotFound, a non-zero
// exit wraps ErrNonZeroExit. The Result is populated in all cases.
func Run(ctx context.Context, spec Spec) (Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	// Give the process a short grace period after cancellation
	// before SIGKILL.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		res.ExitCode = -1
		return res, errors.Join(ErrTimeout, err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		res.ExitCode = -1
		return res, errors.Join(ErrNotFound, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, errors.Join(ErrNonZeroExit, err)
	}

	res.ExitCode = -1
	return res, err
}

// LookPath reports whether the named binary is resolvable on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
