// Package sandbox runs generated source in an external interpreter under a
// hard wall-clock timeout.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"gamewright/internal/logger"
)

// Result captures one sandboxed run. A timed-out run reports TimedOut with a
// timeout-flagged Stderr so downstream classification can treat it like any
// other runtime failure.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Success requires a zero exit code.
func (r Result) Success() bool { return !r.TimedOut && r.ExitCode == 0 }

// Output is the error stream used for classification: stderr when non-empty,
// else stdout.
func (r Result) Output() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner is the execution collaborator consumed by the fixer.
type Runner interface {
	Run(ctx context.Context, source string) (Result, error)
}

// PythonRunner executes source with a Python interpreter as a subprocess.
type PythonRunner struct {
	Bin     string
	Timeout time.Duration
}

func NewPythonRunner(bin string, timeout time.Duration) *PythonRunner {
	if bin == "" {
		bin = "python3"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PythonRunner{Bin: bin, Timeout: timeout}
}

// Run writes the source to a temporary file and executes it. Only setup
// faults (temp file creation) surface as errors; interpreter failures and
// timeouts are reported in the Result.
func (p *PythonRunner) Run(ctx context.Context, source string) (Result, error) {
	dir, err := os.MkdirTemp("", "gamewright-run-*")
	if err != nil {
		return Result{}, fmt.Errorf("creating sandbox dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "program.py")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return Result{}, fmt.Errorf("writing sandbox source: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.Bin, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		res.Stderr = fmt.Sprintf("Timeout: program ran for more than %s", p.Timeout)
		logger.Log.Printf("[sandbox] run timed out after %s", p.Timeout)
		return res, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// Interpreter missing or not startable.
			res.ExitCode = -1
			if res.Stderr == "" {
				res.Stderr = fmt.Sprintf("Execution error: %v", runErr)
			}
		}
	}
	return res, nil
}
