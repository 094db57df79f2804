package natsgath

import (
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/programme-lv/harness/api"
)

type natsGatherer struct {
	nc      *nats.Conn
	subject string
	runUuid string
	logger  *slog.Logger
}

func (s *natsGatherer) StartRun(bindAddr string) {
	s.send(api.NewStartRun(s.runUuid, bindAddr))
}

func (s *natsGatherer) EnterStage(stage api.Stage) {
	s.send(api.NewEnterStage(s.runUuid, stage))
}

func (s *natsGatherer) StageError(stage api.Stage, msg string) {
	s.send(api.NewStageError(s.runUuid, stage, msg))
}

func (s *natsGatherer) FinishTests(outcome api.TestOutcome) {
	s.send(api.NewFinishTests(
		s.runUuid,
		outcome.ExitCode,
		trimStrToRect(string(outcome.Stdout), api.MaxOutputHeight, api.MaxOutputWidth),
		trimStrToRect(string(outcome.Stderr), api.MaxOutputHeight, api.MaxOutputWidth),
	))
}

func (s *natsGatherer) FinishRun(summary api.RunSummary) {
	s.send(api.NewFinishRun(s.runUuid, summary))
}
