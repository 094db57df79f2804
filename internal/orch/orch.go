// Package orch sequences one orchestration run through its lifecycle:
//
//	Idle → ReclaimingPort → Launching → AwaitingReady → Testing → TearingDown → Reported
//
// Any failure before Testing short-circuits to TearingDown; the service is
// never assumed tested if it was never confirmed ready. Teardown runs exactly
// once on every path and its errors never change the run's verdict.
package orch

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/service"
)

// PortReclaimer frees the configured port before launch and serves as the
// teardown fallback when the recorded pid is stale.
type PortReclaimer interface {
	Reclaim(ctx context.Context, port int) error
}

// ServiceManager launches and terminates the service-under-test.
type ServiceManager interface {
	Launch(command []string, dir string, logPath string) (*service.Process, error)
	Teardown(ctx context.Context, p *service.Process, port int) error
}

// ReadyWaiter blocks until the service accepts connections or times out.
type ReadyWaiter func(ctx context.Context, addr string, timeout time.Duration) error

// TestRunner executes the external test-runner and captures its outcome.
type TestRunner func(ctx context.Context, command []string, dir string) (api.TestOutcome, error)

// Orchestrator drives the lifecycle state machine. It is the sole owner of
// error-to-exit-code translation for the run.
type Orchestrator struct {
	logger *slog.Logger
	gath   ProgressGatherer

	reclaimer PortReclaimer
	svc       ServiceManager
	await     ReadyWaiter
	run       TestRunner

	// serviceLogPath receives the detached service's combined output.
	// Empty discards it.
	serviceLogPath string
}

func New(
	logger *slog.Logger,
	gath ProgressGatherer,
	reclaimer PortReclaimer,
	svc ServiceManager,
	await ReadyWaiter,
	run TestRunner,
) *Orchestrator {
	return &Orchestrator{
		logger:    logger,
		gath:      gath,
		reclaimer: reclaimer,
		svc:       svc,
		await:     await,
		run:       run,
	}
}

// SetServiceLogPath routes the service's stdout/stderr to the given file.
func (o *Orchestrator) SetServiceLogPath(path string) {
	o.serviceLogPath = path
}

// Execute performs one full run and returns its terminal summary. It never
// returns before teardown has been attempted, regardless of where the run
// failed.
func (o *Orchestrator) Execute(ctx context.Context, spec api.RunSpec) api.RunSummary {
	if spec.RunTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(spec.RunTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	addr := net.JoinHostPort(spec.BindHost, strconv.Itoa(spec.BindPort))
	o.gath.StartRun(addr)

	var proc *service.Process
	var outcome *api.TestOutcome
	var stageErr error
	var failedStage api.Stage

	// Pre-testing stages. The first failure skips everything up to teardown.
	o.gath.EnterStage(api.StageReclaimingPort)
	if err := o.reclaimer.Reclaim(ctx, spec.BindPort); err != nil {
		stageErr, failedStage = err, api.StageReclaimingPort
	}

	if stageErr == nil {
		o.gath.EnterStage(api.StageLaunching)
		p, err := o.svc.Launch(spec.ServiceCmd, spec.ServiceDir, o.serviceLogPath)
		if err != nil {
			stageErr, failedStage = err, api.StageLaunching
		} else {
			proc = p
		}
	}

	if stageErr == nil {
		o.gath.EnterStage(api.StageAwaitingReady)
		timeout := time.Duration(spec.ReadyTimeoutMs) * time.Millisecond
		if err := o.await(ctx, addr, timeout); err != nil {
			stageErr, failedStage = err, api.StageAwaitingReady
		}
	}

	if stageErr == nil {
		o.gath.EnterStage(api.StageTesting)
		res, err := o.run(ctx, spec.TestCmd, o.testDir(spec))
		if err != nil {
			stageErr, failedStage = err, api.StageTesting
		} else {
			outcome = &res
			o.gath.FinishTests(res)
		}
	}

	if stageErr != nil {
		o.gath.StageError(failedStage, stageErr.Error())
	}

	// Teardown runs unconditionally and with a fresh context: a run-wide
	// timeout that already fired must not also leak the service process.
	o.gath.EnterStage(api.StageTearingDown)
	teardownFailed := false
	if err := o.svc.Teardown(context.Background(), proc, spec.BindPort); err != nil {
		teardownFailed = true
		o.logger.Error("teardown failed", "error", err)
	}

	summary := o.summarize(spec.RunUuid, outcome, stageErr)
	summary.TeardownFailed = teardownFailed

	o.gath.EnterStage(api.StageReported)
	o.gath.FinishRun(summary)
	return summary
}

func (o *Orchestrator) testDir(spec api.RunSpec) string {
	if spec.TestDir != "" {
		return spec.TestDir
	}
	return spec.ServiceDir
}

// summarize translates the run's result into the terminal summary. A captured
// test outcome always wins; its exit code is propagated unchanged. A run that
// never produced an outcome is a harness-level failure and must never report 0.
func (o *Orchestrator) summarize(runUuid string, outcome *api.TestOutcome, stageErr error) api.RunSummary {
	if outcome != nil {
		return api.Summarize(runUuid, *outcome)
	}
	msg := "run aborted before testing"
	if stageErr != nil {
		msg = stageErr.Error()
	}
	return api.RunSummary{
		RunUuid:      runUuid,
		Status:       api.HarnessError,
		ExitCode:     api.HarnessFailureExitCode,
		ErrorMessage: &msg,
	}
}
