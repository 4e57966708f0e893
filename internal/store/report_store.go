package store

import (
	"context"
	"time"
)

type Report struct {
	ReportID     string
	ReportRunID  string
	Title        string
	ContentHTML  string
	ContentJSON  string
	RenderBlocks string
	CreatedOn    time.Time
}

type ReportStore interface {
	CreateReport(ctx context.Context, runID, title, contentHTML, contentJSON, renderBlocks string) (*Report, error)
	ReadReportByID(ctx context.Context, id string) (*Report, error)
	ReadReportByRunID(ctx context.Context, runID string) (*Report, error)
	ListPipelineReports(ctx context.Context, pipelineID string) ([]*Report, error)
	DeleteReport(ctx context.Context, id string) error
}
