package orch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/gatherer/respbuilder"
	"github.com/programme-lv/harness/internal/orch"
	"github.com/programme-lv/harness/internal/service"
)

type fakeReclaimer struct {
	calls int
	err   error
}

func (f *fakeReclaimer) Reclaim(ctx context.Context, port int) error {
	f.calls++
	return f.err
}

type fakeManager struct {
	launchErr     error
	teardownErr   error
	launched      int
	teardowns     int
	teardownProcs []*service.Process
}

func (f *fakeManager) Launch(command []string, dir string, logPath string) (*service.Process, error) {
	f.launched++
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	return &service.Process{Pid: 4242, StartedAt: time.Now()}, nil
}

func (f *fakeManager) Teardown(ctx context.Context, p *service.Process, port int) error {
	f.teardowns++
	f.teardownProcs = append(f.teardownProcs, p)
	return f.teardownErr
}

func testSpec() api.RunSpec {
	return api.RunSpec{
		RunUuid:        "test-run",
		ServiceDir:     "/tmp",
		ServiceCmd:     []string{"/bin/true"},
		BindHost:       "127.0.0.1",
		BindPort:       8000,
		TestCmd:        []string{"/bin/true"},
		ReadyTimeoutMs: 1000,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readyImmediately(ctx context.Context, addr string, timeout time.Duration) error {
	return nil
}

func runWithExit(code int) orch.TestRunner {
	return func(ctx context.Context, command []string, dir string) (api.TestOutcome, error) {
		return api.TestOutcome{ExitCode: code, Stdout: []byte("out"), Stderr: []byte("err")}, nil
	}
}

func TestSuccessfulRunPropagatesZero(t *testing.T) {
	rec := &fakeReclaimer{}
	mgr := &fakeManager{}
	builder := respbuilder.New("test-run")

	o := orch.New(discardLogger(), builder, rec, mgr, readyImmediately, runWithExit(0))
	summary := o.Execute(context.Background(), testSpec())

	require.Equal(t, api.Success, summary.Status)
	require.Equal(t, 0, summary.ExitCode)
	require.False(t, summary.TeardownFailed)
	require.Equal(t, 1, rec.calls)
	require.Equal(t, 1, mgr.launched)
	require.Equal(t, 1, mgr.teardowns)
	require.Equal(t, []api.Stage{
		api.StageReclaimingPort,
		api.StageLaunching,
		api.StageAwaitingReady,
		api.StageTesting,
		api.StageTearingDown,
		api.StageReported,
	}, builder.Stages())
}

func TestRunnerExitCodeForwardedUnchanged(t *testing.T) {
	mgr := &fakeManager{}
	o := orch.New(discardLogger(), respbuilder.New("test-run"),
		&fakeReclaimer{}, mgr, readyImmediately, runWithExit(2))
	summary := o.Execute(context.Background(), testSpec())

	require.Equal(t, api.Failure, summary.Status)
	require.Equal(t, 2, summary.ExitCode)
	require.Equal(t, 1, mgr.teardowns)
}

func TestReclaimFailureSkipsEverythingButTeardown(t *testing.T) {
	rec := &fakeReclaimer{err: errors.New("port is still bound")}
	mgr := &fakeManager{}
	builder := respbuilder.New("test-run")
	ran := false
	run := func(ctx context.Context, command []string, dir string) (api.TestOutcome, error) {
		ran = true
		return api.TestOutcome{}, nil
	}

	o := orch.New(discardLogger(), builder, rec, mgr, readyImmediately, run)
	summary := o.Execute(context.Background(), testSpec())

	require.Equal(t, api.HarnessError, summary.Status)
	require.Equal(t, api.HarnessFailureExitCode, summary.ExitCode)
	require.NotNil(t, summary.ErrorMessage)
	require.False(t, ran)
	require.Equal(t, 0, mgr.launched)
	require.Equal(t, 1, mgr.teardowns)
	require.NotContains(t, builder.Stages(), api.StageTesting)
}

func TestLaunchFailureReportsHarnessError(t *testing.T) {
	mgr := &fakeManager{launchErr: errors.New("failed to spawn service")}
	builder := respbuilder.New("test-run")

	o := orch.New(discardLogger(), builder, &fakeReclaimer{}, mgr, readyImmediately, runWithExit(0))
	summary := o.Execute(context.Background(), testSpec())

	require.Equal(t, api.HarnessError, summary.Status)
	require.Equal(t, api.HarnessFailureExitCode, summary.ExitCode)
	require.Equal(t, 1, mgr.teardowns)
	// Nothing was launched, so teardown gets a nil handle.
	require.Nil(t, mgr.teardownProcs[0])
	require.NotContains(t, builder.Stages(), api.StageTesting)
}

func TestReadinessTimeoutSkipsTesting(t *testing.T) {
	mgr := &fakeManager{}
	builder := respbuilder.New("test-run")
	neverReady := func(ctx context.Context, addr string, timeout time.Duration) error {
		return errors.New("service did not become ready")
	}
	ran := false
	run := func(ctx context.Context, command []string, dir string) (api.TestOutcome, error) {
		ran = true
		return api.TestOutcome{}, nil
	}

	o := orch.New(discardLogger(), builder, &fakeReclaimer{}, mgr, neverReady, run)
	summary := o.Execute(context.Background(), testSpec())

	require.Equal(t, api.HarnessError, summary.Status)
	require.False(t, ran)
	require.Equal(t, 1, mgr.teardowns)
	require.NotNil(t, mgr.teardownProcs[0])
}

func TestRunnerIsNeverInvokedBeforeReadiness(t *testing.T) {
	readyDone := false
	await := func(ctx context.Context, addr string, timeout time.Duration) error {
		readyDone = true
		return nil
	}
	run := func(ctx context.Context, command []string, dir string) (api.TestOutcome, error) {
		require.True(t, readyDone, "test-runner started before readiness was confirmed")
		return api.TestOutcome{}, nil
	}

	o := orch.New(discardLogger(), respbuilder.New("test-run"),
		&fakeReclaimer{}, &fakeManager{}, await, run)
	o.Execute(context.Background(), testSpec())
	require.True(t, readyDone)
}

func TestRunnerCrashStillTearsDown(t *testing.T) {
	mgr := &fakeManager{}
	run := func(ctx context.Context, command []string, dir string) (api.TestOutcome, error) {
		return api.TestOutcome{}, errors.New("failed to start test-runner")
	}

	o := orch.New(discardLogger(), respbuilder.New("test-run"),
		&fakeReclaimer{}, mgr, readyImmediately, run)
	summary := o.Execute(context.Background(), testSpec())

	require.Equal(t, api.HarnessError, summary.Status)
	require.Equal(t, api.HarnessFailureExitCode, summary.ExitCode)
	require.Equal(t, 1, mgr.teardowns)
}

func TestTeardownErrorDoesNotChangeVerdict(t *testing.T) {
	mgr := &fakeManager{teardownErr: errors.New("service process could not be confirmed terminated")}

	o := orch.New(discardLogger(), respbuilder.New("test-run"),
		&fakeReclaimer{}, mgr, readyImmediately, runWithExit(0))
	summary := o.Execute(context.Background(), testSpec())

	require.Equal(t, api.Success, summary.Status)
	require.Equal(t, 0, summary.ExitCode)
	require.True(t, summary.TeardownFailed)
}

func TestRunTimeoutCancelsTesting(t *testing.T) {
	mgr := &fakeManager{}
	run := func(ctx context.Context, command []string, dir string) (api.TestOutcome, error) {
		<-ctx.Done()
		// A killed runner surfaces as a nonzero exit code.
		return api.TestOutcome{ExitCode: 1}, nil
	}

	spec := testSpec()
	spec.RunTimeoutMs = 50

	o := orch.New(discardLogger(), respbuilder.New("test-run"),
		&fakeReclaimer{}, mgr, readyImmediately, run)

	start := time.Now()
	summary := o.Execute(context.Background(), spec)

	require.Less(t, time.Since(start), 5*time.Second)
	require.Equal(t, api.Failure, summary.Status)
	require.Equal(t, 1, summary.ExitCode)
	require.Equal(t, 1, mgr.teardowns)
}
