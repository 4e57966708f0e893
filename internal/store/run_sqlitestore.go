package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
	"github.com/hvirtan/reportpipe/internal"
)

type RunSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewRunSQLiteStore(rdb, rwdb *sql.DB) *RunSQLiteStore {
	return &RunSQLiteStore{rdb, rwdb}
}

func (store *RunSQLiteStore) CreateRun(
	ctx context.Context,
	pipelineID string,
	scheduleID *string,
	trigger TriggerType,
) (*Run, error) {
	r := &Run{
		RunID:         uuid.NewString(),
		RunPipelineID: pipelineID,
		ScheduleID:    scheduleID,
		Status:        StatusRunning,
		TriggerType:   trigger,
	}
	query := `insert into runs (
		run_id,
		run_pipeline_id,
		schedule_id,
		status,
		trigger_type
	)
	values ($1, $2, $3, $4, $5)
	returning started_on, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, r, query,
		r.RunID,
		r.RunPipelineID,
		r.ScheduleID,
		r.Status,
		r.TriggerType,
	); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) ReadRunByID(ctx context.Context, id string) (*Run, error) {
	r := &Run{}
	query := "select * from runs where run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) FinishRun(
	ctx context.Context,
	id string,
	status RunStatus,
	errMessage *string,
) error {
	query := `update runs
	set status = $1,
		error = $2,
		ended_on = $3
	where run_id = $4`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		errMessage,
		time.Now().UTC().Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *RunSQLiteStore) ListPipelineRuns(
	ctx context.Context,
	pipelineID string,
	limit int64,
) ([]Run, error) {
	query := `select * from runs
	where run_pipeline_id = $1
	order by created_on desc limit $2`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, pipelineID, limit)
	return runs, err
}

func (store *RunSQLiteStore) CreateStepResult(
	ctx context.Context,
	runID, stepID string,
	agentID *string,
	input string,
) (*StepResult, error) {
	sr := &StepResult{
		StepResultID: uuid.NewString(),
		ResultRunID:  runID,
		StepID:       &stepID,
		AgentID:      agentID,
		Status:       StatusRunning,
		Input:        input,
	}
	query := `insert into step_results (
		step_result_id,
		result_run_id,
		step_id,
		agent_id,
		status,
		input
	)
	values ($1, $2, $3, $4, $5, $6)
	returning created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, sr, query,
		sr.StepResultID,
		sr.ResultRunID,
		sr.StepID,
		sr.AgentID,
		sr.Status,
		sr.Input,
	); err != nil {
		return nil, err
	}
	return sr, nil
}

func (store *RunSQLiteStore) FinishStepResult(
	ctx context.Context,
	id string,
	status RunStatus,
	output *string,
	tokensUsed, durationMS int64,
	errMessage *string,
) error {
	query := `update step_results
	set status = $1,
		output = $2,
		tokens_used = $3,
		duration_ms = $4,
		error = $5
	where step_result_id = $6`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		output,
		tokensUsed,
		durationMS,
		errMessage,
		id,
	)
	return err
}

func (store *RunSQLiteStore) ListRunStepResults(
	ctx context.Context,
	runID string,
) ([]StepResult, error) {
	query := `select * from step_results
	where result_run_id = $1
	order by created_on, step_result_id`
	results := make([]StepResult, 0)
	err := sqlscan.Select(ctx, store.rdb, &results, query, runID)
	return results, err
}

func (store *RunSQLiteStore) ListRunAgentSections(
	ctx context.Context,
	runID string,
) ([]AgentSection, error) {
	query := `select
		coalesce(a.name, 'Agent') as agent_name,
		coalesce(sr.output, '') as output
	from step_results sr
	left join agents a on a.agent_id = sr.agent_id
	left join pipeline_steps ps on ps.step_id = sr.step_id
	where sr.result_run_id = $1 and sr.status = $2
	order by ps.step_order, sr.created_on`
	sections := make([]AgentSection, 0)
	err := sqlscan.Select(ctx, store.rdb, &sections, query, runID, StatusCompleted)
	return sections, err
}
