package store

import (
	"context"
	"time"
)

type Pipeline struct {
	PipelineID  string
	Name        string
	Description *string
	CreatedOn   time.Time
	UpdatedOn   time.Time
}

type PipelineStep struct {
	StepID         string
	StepPipelineID string
	AgentID        *string
	DataSourceID   *string
	StepOrder      int64
	// Steps sharing a non-nil, contiguous parallel group value
	// execute concurrently.
	ParallelGroup *int64
}

type NewStep struct {
	AgentID       *string
	DataSourceID  *string
	StepOrder     int64
	ParallelGroup *int64
}

type PipelineStore interface {
	CreatePipeline(context.Context, string, *string, []NewStep) (*Pipeline, error)
	ReadPipelineByID(context.Context, string) (*Pipeline, error)
	ReadPipelineByName(context.Context, string) (*Pipeline, error)
	ListPipelineSteps(context.Context, string) ([]PipelineStep, error)
	ReplacePipelineSteps(context.Context, string, []NewStep) error
	DeletePipeline(context.Context, string) error
	ListPipelines(context.Context) ([]*Pipeline, error)
}
