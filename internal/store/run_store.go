package store

import (
	"context"
	"time"
)

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

type TriggerType string

const (
	TriggerManual    TriggerType = "manual"
	TriggerScheduled TriggerType = "scheduled"
	TriggerEvent     TriggerType = "event"
)

type Run struct {
	RunID         string `param:"run_id"`
	RunPipelineID string
	ScheduleID    *string
	Status        RunStatus
	TriggerType   TriggerType
	Error         *string
	StartedOn     time.Time
	EndedOn       *time.Time
	CreatedOn     time.Time
}

type StepResult struct {
	StepResultID string
	ResultRunID  string
	StepID       *string
	AgentID      *string
	Status       RunStatus
	Input        string
	Output       *string
	TokensUsed   int64
	DurationMS   int64
	Error        *string
	CreatedOn    time.Time
}

// AgentSection pairs an agent's display name with the text it produced
// during a completed run.
type AgentSection struct {
	AgentName string
	Output    string
}

type RunStore interface {
	CreateRun(context.Context, string, *string, TriggerType) (*Run, error)
	ReadRunByID(context.Context, string) (*Run, error)
	FinishRun(context.Context, string, RunStatus, *string) error
	ListPipelineRuns(context.Context, string, int64) ([]Run, error)

	CreateStepResult(context.Context, string, string, *string, string) (*StepResult, error)
	FinishStepResult(context.Context, string, RunStatus, *string, int64, int64, *string) error
	ListRunStepResults(context.Context, string) ([]StepResult, error)
	ListRunAgentSections(context.Context, string) ([]AgentSection, error)
}
