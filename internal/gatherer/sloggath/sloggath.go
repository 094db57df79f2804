// Package sloggath writes the run's stage transcript through slog. It is the
// always-on gatherer backing the human-readable output contract.
package sloggath

import (
	"log/slog"

	"github.com/programme-lv/harness/api"
)

type slogGatherer struct {
	logger  *slog.Logger
	runUuid string
}

func New(logger *slog.Logger, runUuid string) *slogGatherer {
	return &slogGatherer{logger: logger, runUuid: runUuid}
}

func (s *slogGatherer) StartRun(bindAddr string) {
	s.logger.Info("run started", "run_uuid", s.runUuid, "bind_addr", bindAddr)
}

func (s *slogGatherer) EnterStage(stage api.Stage) {
	s.logger.Info("entering stage", "run_uuid", s.runUuid, "stage", string(stage))
}

func (s *slogGatherer) StageError(stage api.Stage, msg string) {
	s.logger.Error("stage failed", "run_uuid", s.runUuid, "stage", string(stage), "error", msg)
}

func (s *slogGatherer) FinishTests(outcome api.TestOutcome) {
	s.logger.Info("test-runner finished",
		"run_uuid", s.runUuid,
		"exit_code", outcome.ExitCode,
		"stdout_bytes", len(outcome.Stdout),
		"stderr_bytes", len(outcome.Stderr))
}

func (s *slogGatherer) FinishRun(summary api.RunSummary) {
	s.logger.Info("run finished",
		"run_uuid", s.runUuid,
		"status", string(summary.Status),
		"exit_code", summary.ExitCode,
		"teardown_failed", summary.TeardownFailed)
}
