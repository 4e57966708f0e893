package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

type ReportSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewReportSQLiteStore(rdb, rwdb *sql.DB) *ReportSQLiteStore {
	return &ReportSQLiteStore{rdb, rwdb}
}

func (store *ReportSQLiteStore) CreateReport(
	ctx context.Context,
	runID, title, contentHTML, contentJSON, renderBlocks string,
) (*Report, error) {
	r := &Report{
		ReportID:     uuid.NewString(),
		ReportRunID:  runID,
		Title:        title,
		ContentHTML:  contentHTML,
		ContentJSON:  contentJSON,
		RenderBlocks: renderBlocks,
	}
	query := `insert into reports (
		report_id,
		report_run_id,
		title,
		content_html,
		content_json,
		render_blocks
	)
	values ($1, $2, $3, $4, $5, $6)
	returning created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, r, query,
		r.ReportID,
		r.ReportRunID,
		r.Title,
		r.ContentHTML,
		r.ContentJSON,
		r.RenderBlocks,
	); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *ReportSQLiteStore) ReadReportByID(ctx context.Context, id string) (*Report, error) {
	r := &Report{}
	query := "select * from reports where report_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *ReportSQLiteStore) ReadReportByRunID(ctx context.Context, runID string) (*Report, error) {
	r := &Report{}
	query := "select * from reports where report_run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, runID); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *ReportSQLiteStore) ListPipelineReports(
	ctx context.Context,
	pipelineID string,
) ([]*Report, error) {
	query := `select rp.*
	from reports rp
	join runs r on r.run_id = rp.report_run_id
	where r.run_pipeline_id = $1
	order by rp.created_on desc`
	reports := make([]*Report, 0)
	err := sqlscan.Select(ctx, store.rdb, &reports, query, pipelineID)
	return reports, err
}

func (store *ReportSQLiteStore) DeleteReport(ctx context.Context, id string) error {
	query := "delete from reports where report_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}
