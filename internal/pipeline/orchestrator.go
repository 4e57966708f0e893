package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/hvirtan/reportpipe/internal/store"
)

// Result summarizes one pipeline run. A failed run is reported through
// Status and the run row's error column; the returned error is reserved
// for datastore problems.
type Result struct {
	RunID           string
	Status          store.RunStatus
	Output          string
	Steps           int
	TotalTokens     int64
	TotalDurationMS int64
}

type Orchestrator struct {
	pipelines store.PipelineStore
	runs      store.RunStore
	executor  *Executor
}

func NewOrchestrator(
	pipelines store.PipelineStore,
	runs store.RunStore,
	executor *Executor,
) *Orchestrator {
	return &Orchestrator{
		pipelines: pipelines,
		runs:      runs,
		executor:  executor,
	}
}

// ExecutePipeline runs every step group of a pipeline in order, feeding
// each group's merged output into the next. The run row is created
// before any step executes and finalized exactly once.
func (o *Orchestrator) ExecutePipeline(
	ctx context.Context,
	pipelineID string,
	trigger store.TriggerType,
	scheduleID *string,
	initialInput string,
) (*Result, error) {
	run, err := o.runs.CreateRun(ctx, pipelineID, scheduleID, trigger)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	result := &Result{RunID: run.RunID, Status: store.StatusRunning}

	steps, err := o.pipelines.ListPipelineSteps(ctx, pipelineID)
	if err != nil {
		o.failRun(ctx, result, "listing pipeline steps: "+err.Error())
		return nil, fmt.Errorf("listing pipeline steps: %w", err)
	}
	if len(steps) == 0 {
		o.failRun(ctx, result, "pipeline has no steps")
		return result, nil
	}

	groups := GroupSteps(steps)
	log.Printf("run %s: executing %d steps in %d groups", run.RunID, len(steps), len(groups))

	input := initialInput
	for _, group := range groups {
		outcomes := o.executeGroup(ctx, run.RunID, group, input)
		for _, outcome := range outcomes {
			result.Steps++
			result.TotalTokens += outcome.TokensUsed
			result.TotalDurationMS += outcome.DurationMS
		}
		if failed := firstFailure(outcomes); failed != nil {
			message := fmt.Sprintf("step failed: %v", failed.Err)
			o.failRun(ctx, result, message)
			log.Printf("run %s: %s", run.RunID, message)
			return result, nil
		}
		input = MergeOutputs(outcomes)
	}

	result.Output = input
	result.Status = store.StatusCompleted
	if err := o.runs.FinishRun(ctx, run.RunID, store.StatusCompleted, nil); err != nil {
		return result, fmt.Errorf("finishing run: %w", err)
	}
	log.Printf("run %s: completed, %d tokens", run.RunID, result.TotalTokens)
	return result, nil
}

// executeGroup runs every step of one group concurrently and waits for
// all of them, even when some fail.
func (o *Orchestrator) executeGroup(
	ctx context.Context,
	runID string,
	group Group,
	input string,
) []StepOutcome {
	outcomes := make([]StepOutcome, len(group.Steps))
	var wg sync.WaitGroup
	for i, step := range group.Steps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = o.executor.ExecuteStep(ctx, runID, step, input)
		}()
	}
	wg.Wait()
	return outcomes
}

func (o *Orchestrator) failRun(ctx context.Context, result *Result, message string) {
	result.Status = store.StatusFailed
	if err := o.runs.FinishRun(ctx, result.RunID, store.StatusFailed, &message); err != nil {
		log.Printf("run %s: recording failure: %v", result.RunID, err)
	}
}

func firstFailure(outcomes []StepOutcome) *StepOutcome {
	for i := range outcomes {
		if outcomes[i].Err != nil {
			return &outcomes[i]
		}
	}
	return nil
}
