package respbuilder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/gatherer/respbuilder"
)

func TestSummaryIsNilUntilRunFinishes(t *testing.T) {
	b := respbuilder.New("run-1")
	b.EnterStage(api.StageReclaimingPort)
	require.Nil(t, b.Summary())

	want := api.RunSummary{RunUuid: "run-1", Status: api.Success, ExitCode: 0}
	b.FinishRun(want)

	got := b.Summary()
	require.NotNil(t, got)
	require.Equal(t, want, *got)
}

func TestElapsedFreezesWhenRunFinishes(t *testing.T) {
	b := respbuilder.New("run-2")
	require.GreaterOrEqual(t, b.Elapsed(), time.Duration(0))

	b.FinishRun(api.RunSummary{RunUuid: "run-2", Status: api.Failure, ExitCode: 3})
	frozen := b.Elapsed()

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, frozen, b.Elapsed())
}

func TestOutcomeAndStagesAreRecordedInOrder(t *testing.T) {
	b := respbuilder.New("run-3")
	b.EnterStage(api.StageReclaimingPort)
	b.EnterStage(api.StageLaunching)

	outcome := api.TestOutcome{ExitCode: 0, Stdout: []byte("ok\n")}
	b.FinishTests(outcome)

	require.Equal(t, []api.Stage{api.StageReclaimingPort, api.StageLaunching}, b.Stages())
	require.NotNil(t, b.Outcome())
	require.Equal(t, outcome, *b.Outcome())
}
