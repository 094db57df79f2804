package api

// RunStatus is the terminal status of one orchestration run
type RunStatus string

const (
	// Success means the test-runner exited 0.
	Success RunStatus = "success"
	// Failure means the test-runner exited nonzero. The harness does not
	// distinguish "tests failed" from "runner crashed".
	Failure RunStatus = "failure"
	// HarnessError means the run never reached the testing stage.
	HarnessError RunStatus = "harness_error"
)

// HarnessFailureExitCode is the reserved exit code for runs that fail before
// the test-runner is ever executed. It is never 0 and is deliberately outside
// the range commonly used by test-runners themselves.
const HarnessFailureExitCode = 101

// TestOutcome is the captured result of the external test-runner. The harness
// treats stdout and stderr as opaque bytes and never interprets them.
type TestOutcome struct {
	ExitCode int    `json:"exit_code"`
	Stdout   []byte `json:"stdout"`
	Stderr   []byte `json:"stderr"`
}

// RunSummary is the terminal artifact of one orchestration run.
type RunSummary struct {
	RunUuid string    `json:"run_uuid"`
	Status  RunStatus `json:"status"`

	// ExitCode is the code the harness propagates to its caller: the runner's
	// exit code unchanged, or HarnessFailureExitCode for pre-testing failures.
	ExitCode int `json:"exit_code"`

	// ErrorMessage holds the stage error for harness-level failures.
	ErrorMessage *string `json:"error_message,omitempty"`

	// TeardownFailed records that service termination could not be confirmed.
	// It never changes Status, the verdict is fixed before teardown runs.
	TeardownFailed bool `json:"teardown_failed,omitempty"`
}

// Summarize maps a captured test outcome to a run summary. Exit code 0 means
// success by convention of the runner; anything else is failure. The exit code
// is propagated unchanged so callers can branch on it directly.
func Summarize(runUuid string, outcome TestOutcome) RunSummary {
	status := Success
	if outcome.ExitCode != 0 {
		status = Failure
	}
	return RunSummary{
		RunUuid:  runUuid,
		Status:   status,
		ExitCode: outcome.ExitCode,
	}
}
