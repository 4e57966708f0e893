package handler

import (
	"encoding/json"
	"time"
)

type RunTriggerParams struct {
	PipelineID string `json:"pipeline_id"`
}

type ObjectStorageEventParams struct {
	PipelineID string `json:"pipeline_id"`
	ObjectKey  string `json:"object_key"`
}

type RunParams struct {
	RunID string `param:"run_id"`
}

type ReportParams struct {
	ReportID string `param:"report_id"`
}

type StepResultResponse struct {
	StepResultID string  `json:"step_result_id"`
	StepID       *string `json:"step_id"`
	AgentID      *string `json:"agent_id"`
	Status       string  `json:"status"`
	Output       *string `json:"output"`
	TokensUsed   int64   `json:"tokens_used"`
	DurationMS   int64   `json:"duration_ms"`
	Error        *string `json:"error"`
}

type RunResponse struct {
	RunID       string               `json:"run_id"`
	PipelineID  string               `json:"pipeline_id"`
	ScheduleID  *string              `json:"schedule_id"`
	Status      string               `json:"status"`
	TriggerType string               `json:"trigger_type"`
	Error       *string              `json:"error"`
	StartedOn   time.Time            `json:"started_on"`
	EndedOn     *time.Time           `json:"ended_on"`
	StepResults []StepResultResponse `json:"step_results"`
}

type ReportResponse struct {
	ReportID     string          `json:"report_id"`
	RunID        string          `json:"run_id"`
	Title        string          `json:"title"`
	ContentHTML  string          `json:"content_html"`
	ContentJSON  json.RawMessage `json:"content_json"`
	RenderBlocks json.RawMessage `json:"render_blocks"`
	CreatedOn    time.Time       `json:"created_on"`
}
