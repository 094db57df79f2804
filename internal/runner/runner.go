// Package runner executes the external test-runner as a foreground child and
// captures its terminal exit status. The runner's exit code is forwarded
// unchanged; the harness never translates it into its own taxonomy.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/programme-lv/harness/api"
)

// Run blocks until the test-runner exits and returns its captured outcome.
// Stdout and stderr are captured verbatim while also being streamed through
// to the harness's own stdio so the caller sees the runner's output live.
//
// Cancelling ctx kills the runner; the killed run surfaces as a nonzero exit
// code, the same as any other failing run.
//
// A non-nil error means the runner could not be executed at all; a runner
// that ran and exited nonzero is a normal outcome, not an error.
func Run(ctx context.Context, command []string, dir string) (api.TestOutcome, error) {
	if len(command) == 0 {
		return api.TestOutcome{}, fmt.Errorf("failed to run tests: empty command")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return api.TestOutcome{}, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return api.TestOutcome{}, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return api.TestOutcome{}, fmt.Errorf("failed to start test-runner: %w", err)
	}

	var outBuf, errBuf bytes.Buffer
	var pumps errgroup.Group
	pumps.Go(func() error {
		_, err := io.Copy(io.MultiWriter(&outBuf, os.Stdout), stdout)
		return err
	})
	pumps.Go(func() error {
		_, err := io.Copy(io.MultiWriter(&errBuf, os.Stderr), stderr)
		return err
	})
	pumpErr := pumps.Wait()

	waitErr := cmd.Wait()
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return api.TestOutcome{}, fmt.Errorf("failed to wait for test-runner: %w", waitErr)
		}
	}
	if pumpErr != nil {
		return api.TestOutcome{}, fmt.Errorf("failed to capture test-runner output: %w", pumpErr)
	}

	exitCode := cmd.ProcessState.ExitCode()
	if exitCode < 0 {
		// Killed by a signal; there is no native exit code to forward.
		exitCode = 1
	}

	return api.TestOutcome{
		ExitCode: exitCode,
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
	}, nil
}
