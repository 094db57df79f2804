package orch

import (
	"github.com/programme-lv/harness/api"
)

// ProgressGatherer receives the run's stage transitions and terminal result.
// Implementations must not block the state machine for long; the slog gatherer
// writes the human-readable transcript, the NATS gatherer streams the same
// events to a remote subject.
type ProgressGatherer interface {
	StartRun(bindAddr string)

	EnterStage(stage api.Stage)
	StageError(stage api.Stage, msg string)

	FinishTests(outcome api.TestOutcome)
	FinishRun(summary api.RunSummary)
}

// multiGatherer fans every event out to all wrapped gatherers in order.
type multiGatherer struct {
	gatherers []ProgressGatherer
}

// Combine merges several gatherers into one.
func Combine(gatherers ...ProgressGatherer) ProgressGatherer {
	return &multiGatherer{gatherers: gatherers}
}

func (m *multiGatherer) StartRun(bindAddr string) {
	for _, g := range m.gatherers {
		g.StartRun(bindAddr)
	}
}

func (m *multiGatherer) EnterStage(stage api.Stage) {
	for _, g := range m.gatherers {
		g.EnterStage(stage)
	}
}

func (m *multiGatherer) StageError(stage api.Stage, msg string) {
	for _, g := range m.gatherers {
		g.StageError(stage, msg)
	}
}

func (m *multiGatherer) FinishTests(outcome api.TestOutcome) {
	for _, g := range m.gatherers {
		g.FinishTests(outcome)
	}
}

func (m *multiGatherer) FinishRun(summary api.RunSummary) {
	for _, g := range m.gatherers {
		g.FinishRun(summary)
	}
}
