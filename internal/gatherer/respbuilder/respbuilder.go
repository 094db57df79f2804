package respbuilder

import (
	"time"

	"github.com/programme-lv/harness/api"
)

// Builder gathers run events and keeps the captured test outcome around for
// consumers that need it after the run is reported, such as the transcript
// artifact writer.
type Builder struct {
	runUuid string

	started  time.Time
	finished *time.Time

	stages  []api.Stage
	outcome *api.TestOutcome
	summary *api.RunSummary
}

func New(runUuid string) *Builder {
	return &Builder{
		runUuid: runUuid,
		started: time.Now(),
	}
}

// StartRun implements orch.ProgressGatherer.
func (b *Builder) StartRun(bindAddr string) {}

// EnterStage implements orch.ProgressGatherer.
func (b *Builder) EnterStage(stage api.Stage) {
	b.stages = append(b.stages, stage)
}

// StageError implements orch.ProgressGatherer.
func (b *Builder) StageError(stage api.Stage, msg string) {}

// FinishTests implements orch.ProgressGatherer.
func (b *Builder) FinishTests(outcome api.TestOutcome) {
	b.outcome = &outcome
}

// FinishRun implements orch.ProgressGatherer.
func (b *Builder) FinishRun(summary api.RunSummary) {
	now := time.Now()
	b.finished = &now
	b.summary = &summary
}

// Outcome returns the captured test outcome, or nil if the run never reached
// the testing stage.
func (b *Builder) Outcome() *api.TestOutcome {
	return b.outcome
}

// Summary returns the terminal summary, or nil before the run is reported.
func (b *Builder) Summary() *api.RunSummary {
	return b.summary
}

// Stages returns the stage transitions seen so far, in order.
func (b *Builder) Stages() []api.Stage {
	return b.stages
}

// Elapsed reports the run's wall time; before FinishRun it is time since start.
func (b *Builder) Elapsed() time.Duration {
	if b.finished != nil {
		return b.finished.Sub(b.started)
	}
	return time.Since(b.started)
}
