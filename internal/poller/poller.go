// Package poller drives scheduled pipelines: on a fixed tick it finds
// due schedules, advances their next-run timestamps and triggers the
// run, report and delivery chain for each.
package poller

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/hvirtan/reportpipe/internal/delivery"
	"github.com/hvirtan/reportpipe/internal/pipeline"
	"github.com/hvirtan/reportpipe/internal/store"
)

const DefaultTickInterval = time.Minute

// TickResult is one schedule's outcome within a tick. A failing
// schedule never aborts its siblings in the same batch.
type TickResult struct {
	ScheduleID string
	Err        error
}

type Orchestrator interface {
	ExecutePipeline(
		ctx context.Context,
		pipelineID string,
		trigger store.TriggerType,
		scheduleID *string,
		initialInput string,
	) (*pipeline.Result, error)
}

type ReportGenerator interface {
	GenerateReport(
		ctx context.Context,
		runID, pipelineName string,
		sections []store.AgentSection,
	) (*store.Report, error)
}

type DeliveryEngine interface {
	DeliverReport(
		ctx context.Context,
		rep *store.Report,
		pipelineName, scheduleID string,
	) ([]delivery.Result, error)
}

type Poller struct {
	schedules    store.ScheduleStore
	runs         store.RunStore
	orchestrator Orchestrator
	generator    ReportGenerator
	engine       DeliveryEngine
	batchSize    int64
	scheduler    gocron.Scheduler

	// polling guards against overlapping ticks: a tick that arrives
	// while a previous one is still draining schedules is skipped.
	polling atomic.Bool
}

func NewPoller(
	schedules store.ScheduleStore,
	runs store.RunStore,
	orchestrator Orchestrator,
	generator ReportGenerator,
	engine DeliveryEngine,
	batchSize int64,
) *Poller {
	return &Poller{
		schedules:    schedules,
		runs:         runs,
		orchestrator: orchestrator,
		generator:    generator,
		engine:       engine,
		batchSize:    batchSize,
	}
}

// Start creates the poller's scheduler, registers the tick and starts
// it. Stop shuts the scheduler down again.
func (p *Poller) Start(ctx context.Context, interval time.Duration) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			p.Tick(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("registering poll job: %w", err)
	}
	p.scheduler = scheduler
	scheduler.Start()
	return nil
}

// Stop shuts down the scheduler started by Start. It is a no-op on a
// poller that was never started.
func (p *Poller) Stop() error {
	if p.scheduler == nil {
		return nil
	}
	return p.scheduler.Shutdown()
}

// Tick processes one batch of due schedules. It returns nil without
// doing any work when a previous tick is still running.
func (p *Poller) Tick(ctx context.Context) []TickResult {
	if !p.polling.CompareAndSwap(false, true) {
		return nil
	}
	defer p.polling.Store(false)

	now := time.Now().UTC()
	due, err := p.schedules.ListDueSchedules(ctx, now, p.batchSize)
	if err != nil {
		log.Println("listing due schedules:", err)
		return nil
	}

	results := make([]TickResult, 0, len(due))
	for _, s := range due {
		result := TickResult{ScheduleID: s.ScheduleID}
		if err := p.processSchedule(ctx, s, now); err != nil {
			result.Err = err
			log.Printf("schedule %s (%s): %v", s.ScheduleID, s.PipelineName, err)
		}
		results = append(results, result)
	}
	return results
}

// processSchedule advances the schedule's bookkeeping first, so a crash
// between the update and the run cannot re-fire this occurrence, then
// runs the pipeline, generates the report and delivers it.
func (p *Poller) processSchedule(ctx context.Context, s *store.Schedule, now time.Time) error {
	next, err := NextRun(s.CronExpression, s.Timezone, now)
	if err != nil {
		return fmt.Errorf("computing next run: %w", err)
	}
	if err := p.schedules.AdvanceSchedule(ctx, s.ScheduleID, now, next); err != nil {
		return fmt.Errorf("advancing schedule: %w", err)
	}

	res, err := p.orchestrator.ExecutePipeline(
		ctx, s.SchedulePipelineID, store.TriggerScheduled, &s.ScheduleID, "",
	)
	if err != nil {
		return fmt.Errorf("executing pipeline: %w", err)
	}
	if res.Status != store.StatusCompleted {
		return fmt.Errorf("run %s finished %s", res.RunID, res.Status)
	}

	sections, err := p.runs.ListRunAgentSections(ctx, res.RunID)
	if err != nil {
		return fmt.Errorf("listing run sections: %w", err)
	}
	rep, err := p.generator.GenerateReport(ctx, res.RunID, s.PipelineName, sections)
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}

	deliveryResults, err := p.engine.DeliverReport(ctx, rep, s.PipelineName, s.ScheduleID)
	if err != nil {
		return fmt.Errorf("delivering report: %w", err)
	}
	for _, dr := range deliveryResults {
		if !dr.Success {
			log.Printf("schedule %s: %s delivery failed: %s", s.ScheduleID, dr.Channel, dr.Error)
		}
	}
	return nil
}
