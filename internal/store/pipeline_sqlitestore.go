package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

type PipelineSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewPipelineSQLiteStore(rdb, rwdb *sql.DB) *PipelineSQLiteStore {
	return &PipelineSQLiteStore{rdb, rwdb}
}

func (store *PipelineSQLiteStore) CreatePipeline(
	ctx context.Context,
	name string,
	description *string,
	steps []NewStep,
) (*Pipeline, error) {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p := &Pipeline{
		PipelineID:  uuid.NewString(),
		Name:        name,
		Description: description,
	}
	query := `insert into pipelines (
		pipeline_id,
		name,
		description
	)
	values ($1, $2, $3)
	returning created_on, updated_on`
	if err := sqlscan.Get(
		ctx, tx, p, query,
		p.PipelineID,
		p.Name,
		p.Description,
	); err != nil {
		return nil, err
	}

	if err := insertSteps(ctx, tx, p.PipelineID, steps); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func insertSteps(ctx context.Context, tx *sql.Tx, pipelineID string, steps []NewStep) error {
	query := `insert into pipeline_steps (
		step_id,
		step_pipeline_id,
		agent_id,
		data_source_id,
		step_order,
		parallel_group
	)
	values ($1, $2, $3, $4, $5, $6)`
	for _, s := range steps {
		if _, err := tx.ExecContext(
			ctx, query,
			uuid.NewString(),
			pipelineID,
			s.AgentID,
			s.DataSourceID,
			s.StepOrder,
			s.ParallelGroup,
		); err != nil {
			return err
		}
	}
	return nil
}

func (store *PipelineSQLiteStore) ReadPipelineByID(
	ctx context.Context,
	id string,
) (*Pipeline, error) {
	p := &Pipeline{}
	query := `select * from pipelines where pipeline_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, p, query, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *PipelineSQLiteStore) ReadPipelineByName(
	ctx context.Context,
	name string,
) (*Pipeline, error) {
	p := &Pipeline{}
	query := `select * from pipelines where name = $1`
	if err := sqlscan.Get(ctx, store.rdb, p, query, name); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *PipelineSQLiteStore) ListPipelineSteps(
	ctx context.Context,
	pipelineID string,
) ([]PipelineStep, error) {
	query := `select * from pipeline_steps
	where step_pipeline_id = $1
	order by step_order, parallel_group nulls first`
	steps := make([]PipelineStep, 0)
	err := sqlscan.Select(ctx, store.rdb, &steps, query, pipelineID)
	return steps, err
}

func (store *PipelineSQLiteStore) ReplacePipelineSteps(
	ctx context.Context,
	pipelineID string,
	steps []NewStep,
) error {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		"delete from pipeline_steps where step_pipeline_id = $1",
		pipelineID,
	); err != nil {
		return err
	}
	if err := insertSteps(ctx, tx, pipelineID, steps); err != nil {
		return err
	}
	if _, err := tx.ExecContext(
		ctx,
		"update pipelines set updated_on = current_timestamp where pipeline_id = $1",
		pipelineID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (store *PipelineSQLiteStore) DeletePipeline(ctx context.Context, id string) error {
	query := "delete from pipelines where pipeline_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *PipelineSQLiteStore) ListPipelines(ctx context.Context) ([]*Pipeline, error) {
	query := `select * from pipelines order by name`
	pipelines := make([]*Pipeline, 0)
	err := sqlscan.Select(ctx, store.rdb, &pipelines, query)
	return pipelines, err
}
