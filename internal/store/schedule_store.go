package store

import (
	"context"
	"time"
)

type Schedule struct {
	ScheduleID         string
	SchedulePipelineID string
	CronExpression     string
	Timezone           string
	Enabled            bool
	LastRunAt          *time.Time
	NextRunAt          *time.Time
	CreatedOn          time.Time

	PipelineName string
}

type ScheduleStore interface {
	CreateSchedule(context.Context, string, string, string, bool, *time.Time) (*Schedule, error)
	ReadScheduleByID(context.Context, string) (*Schedule, error)
	ListSchedules(context.Context) ([]*Schedule, error)
	ListDueSchedules(context.Context, time.Time, int64) ([]*Schedule, error)
	AdvanceSchedule(context.Context, string, time.Time, time.Time) error
	SetScheduleEnabled(context.Context, string, bool) error
	DeleteSchedule(context.Context, string) error
}
