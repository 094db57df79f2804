package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/programme-lv/harness/internal/runner"
)

func TestRunForwardsZeroExitCode(t *testing.T) {
	outcome, err := runner.Run(context.Background(), []string{"/bin/sh", "-c", "exit 0"}, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 0, outcome.ExitCode)
}

func TestRunForwardsNonzeroExitCodeUnchanged(t *testing.T) {
	outcome, err := runner.Run(context.Background(), []string{"/bin/sh", "-c", "exit 7"}, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7, outcome.ExitCode)
}

func TestRunCapturesOutputStreams(t *testing.T) {
	outcome, err := runner.Run(context.Background(),
		[]string{"/bin/sh", "-c", "echo all good; echo complaint >&2; exit 3"}, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 3, outcome.ExitCode)
	require.Equal(t, "all good\n", string(outcome.Stdout))
	require.Equal(t, "complaint\n", string(outcome.Stderr))
}

func TestRunMissingBinaryIsAnError(t *testing.T) {
	_, err := runner.Run(context.Background(), []string{"/nonexistent/test-runner"}, t.TempDir())
	require.Error(t, err)
}

func TestRunEmptyCommandIsAnError(t *testing.T) {
	_, err := runner.Run(context.Background(), nil, t.TempDir())
	require.Error(t, err)
}

func TestRunKilledByContextReportsFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcome, err := runner.Run(ctx, []string{"/bin/sh", "-c", "sleep 30"}, t.TempDir())
	require.Less(t, time.Since(start), 10*time.Second)
	if err == nil {
		require.NotEqual(t, 0, outcome.ExitCode)
	}
}
