package api

import "time"

// MsgType is a message type for streamed run progress
type MsgType string

// Streaming message type constants
const (
	StartRunMsg    MsgType = "run_start"
	EnterStageMsg  MsgType = "stage_enter"
	StageErrorMsg  MsgType = "stage_error"
	FinishTestsMsg MsgType = "tests_finish"
	FinishRunMsg   MsgType = "run_finish"
)

// Stage names the orchestrator's lifecycle states
type Stage string

const (
	StageIdle           Stage = "idle"
	StageReclaimingPort Stage = "reclaiming_port"
	StageLaunching      Stage = "launching"
	StageAwaitingReady  Stage = "awaiting_ready"
	StageTesting        Stage = "testing"
	StageTearingDown    Stage = "tearing_down"
	StageReported       Stage = "reported"
)

// Captured output size constraints for streamed messages
const (
	MaxOutputHeight = 40
	MaxOutputWidth  = 80
)

// Header is the common header for all streamed progress messages
type Header struct {
	RunUuid string  `json:"run_uuid"`
	MsgType MsgType `json:"msg_type"`
}

// StartRun message sent when a run begins
type StartRun struct {
	Header
	BindAddr    string `json:"bind_addr"`
	StartedTime string `json:"started_time"`
}

// EnterStage message sent on every state machine transition
type EnterStage struct {
	Header
	Stage Stage `json:"stage"`
}

// StageError message sent when a stage fails
type StageError struct {
	Header
	Stage        Stage  `json:"stage"`
	ErrorMessage string `json:"error_message"`
}

// FinishTests message sent when the test-runner exits
type FinishTests struct {
	Header
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// FinishRun message sent when the run reaches its terminal state
type FinishRun struct {
	Header
	Status         RunStatus `json:"status"`
	ExitCode       int       `json:"exit_code"`
	ErrorMessage   *string   `json:"error_message"`
	TeardownFailed bool      `json:"teardown_failed"`
}

// Helper function to create a header
func NewHeader(runUuid string, msgType MsgType) Header {
	return Header{
		RunUuid: runUuid,
		MsgType: msgType,
	}
}

// Helper functions to create specific streamed message types
func NewStartRun(runUuid, bindAddr string) StartRun {
	return StartRun{
		Header:      NewHeader(runUuid, StartRunMsg),
		BindAddr:    bindAddr,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewEnterStage(runUuid string, stage Stage) EnterStage {
	return EnterStage{
		Header: NewHeader(runUuid, EnterStageMsg),
		Stage:  stage,
	}
}

func NewStageError(runUuid string, stage Stage, msg string) StageError {
	return StageError{
		Header:       NewHeader(runUuid, StageErrorMsg),
		Stage:        stage,
		ErrorMessage: msg,
	}
}

func NewFinishTests(runUuid string, exitCode int, stdout, stderr string) FinishTests {
	return FinishTests{
		Header:   NewHeader(runUuid, FinishTestsMsg),
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
	}
}

func NewFinishRun(runUuid string, summary RunSummary) FinishRun {
	return FinishRun{
		Header:         NewHeader(runUuid, FinishRunMsg),
		Status:         summary.Status,
		ExitCode:       summary.ExitCode,
		ErrorMessage:   summary.ErrorMessage,
		TeardownFailed: summary.TeardownFailed,
	}
}
