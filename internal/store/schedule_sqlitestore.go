package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
	"github.com/hvirtan/reportpipe/internal"
)

type ScheduleSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewScheduleSQLiteStore(rdb, rwdb *sql.DB) *ScheduleSQLiteStore {
	return &ScheduleSQLiteStore{rdb, rwdb}
}

func (store *ScheduleSQLiteStore) CreateSchedule(
	ctx context.Context,
	pipelineID, cronExpression, timezone string,
	enabled bool,
	nextRunAt *time.Time,
) (*Schedule, error) {
	s := &Schedule{
		ScheduleID:         uuid.NewString(),
		SchedulePipelineID: pipelineID,
		CronExpression:     cronExpression,
		Timezone:           timezone,
		Enabled:            enabled,
		NextRunAt:          nextRunAt,
	}
	var next *string
	if nextRunAt != nil {
		v := nextRunAt.UTC().Format(internal.DBTimestampLayout)
		next = &v
	}
	query := `insert into schedules (
		schedule_id,
		schedule_pipeline_id,
		cron_expression,
		timezone,
		enabled,
		next_run_at
	)
	values ($1, $2, $3, $4, $5, $6)
	returning created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, s, query,
		s.ScheduleID,
		s.SchedulePipelineID,
		s.CronExpression,
		s.Timezone,
		s.Enabled,
		next,
	); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *ScheduleSQLiteStore) ReadScheduleByID(
	ctx context.Context,
	id string,
) (*Schedule, error) {
	s := &Schedule{}
	query := `select s.*, p.name as pipeline_name
	from schedules s
	join pipelines p on p.pipeline_id = s.schedule_pipeline_id
	where s.schedule_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, s, query, id); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *ScheduleSQLiteStore) ListSchedules(ctx context.Context) ([]*Schedule, error) {
	query := `select s.*, p.name as pipeline_name
	from schedules s
	join pipelines p on p.pipeline_id = s.schedule_pipeline_id
	order by s.created_on`
	schedules := make([]*Schedule, 0)
	err := sqlscan.Select(ctx, store.rdb, &schedules, query)
	return schedules, err
}

func (store *ScheduleSQLiteStore) ListDueSchedules(
	ctx context.Context,
	now time.Time,
	limit int64,
) ([]*Schedule, error) {
	query := `select s.*, p.name as pipeline_name
	from schedules s
	join pipelines p on p.pipeline_id = s.schedule_pipeline_id
	where s.enabled = true
		and s.next_run_at is not null
		and s.next_run_at <= $1
	order by s.next_run_at
	limit $2`
	schedules := make([]*Schedule, 0)
	err := sqlscan.Select(
		ctx, store.rdb, &schedules, query,
		now.UTC().Format(internal.DBTimestampLayout),
		limit,
	)
	return schedules, err
}

// AdvanceSchedule persists the new run bookkeeping before the triggered
// pipeline executes, so a crash mid-run cannot re-fire the same occurrence.
func (store *ScheduleSQLiteStore) AdvanceSchedule(
	ctx context.Context,
	id string,
	lastRunAt, nextRunAt time.Time,
) error {
	query := `update schedules
	set last_run_at = $1,
		next_run_at = $2
	where schedule_id = $3`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		lastRunAt.UTC().Format(internal.DBTimestampLayout),
		nextRunAt.UTC().Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *ScheduleSQLiteStore) SetScheduleEnabled(
	ctx context.Context,
	id string,
	enabled bool,
) error {
	query := `update schedules set enabled = $1 where schedule_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, enabled, id)
	return err
}

func (store *ScheduleSQLiteStore) DeleteSchedule(ctx context.Context, id string) error {
	query := "delete from schedules where schedule_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}
