package store

import (
	"context"
	"testing"

	"github.com/hvirtan/reportpipe/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestRunSQLiteStore_CreateRun(t *testing.T) {
	t.Run("success - run starts in running status", func(t *testing.T) {
		// arrange
		p := generatePipeline(t)

		// act
		r, err := runStore.CreateRun(context.Background(), p.PipelineID, nil, TriggerManual)

		// assert
		assert.NoError(t, err)
		assert.NotEmpty(t, r.RunID)
		assert.Equal(t, StatusRunning, r.Status)
		assert.Equal(t, TriggerManual, r.TriggerType)
		assert.Nil(t, r.EndedOn)
		assert.False(t, r.StartedOn.IsZero())
	})
}

func TestRunSQLiteStore_FinishRun(t *testing.T) {
	t.Run("success - completed run has ended timestamp", func(t *testing.T) {
		// arrange
		r := generateRun(t)

		// act
		finishErr := runStore.FinishRun(context.Background(), r.RunID, StatusCompleted, nil)
		read, readErr := runStore.ReadRunByID(context.Background(), r.RunID)

		// assert
		assert.NoError(t, finishErr)
		assert.NoError(t, readErr)
		assert.Equal(t, StatusCompleted, read.Status)
		assert.Nil(t, read.Error)
		assert.NotNil(t, read.EndedOn)
	})
	t.Run("success - failed run records error message", func(t *testing.T) {
		// arrange
		r := generateRun(t)
		message := "step 2 failed: model request timed out"

		// act
		finishErr := runStore.FinishRun(
			context.Background(), r.RunID, StatusFailed, util.AsPtr(message),
		)
		read, readErr := runStore.ReadRunByID(context.Background(), r.RunID)

		// assert
		assert.NoError(t, finishErr)
		assert.NoError(t, readErr)
		assert.Equal(t, StatusFailed, read.Status)
		assert.Equal(t, message, *read.Error)
	})
}

func TestRunSQLiteStore_ListPipelineRuns(t *testing.T) {
	t.Run("success - limit caps results", func(t *testing.T) {
		// arrange
		p := generatePipeline(t)
		for range 3 {
			_, err := runStore.CreateRun(context.Background(), p.PipelineID, nil, TriggerManual)
			assert.NoError(t, err)
		}

		// act
		runs, err := runStore.ListPipelineRuns(context.Background(), p.PipelineID, 2)

		// assert
		assert.NoError(t, err)
		assert.Len(t, runs, 2)
	})
}

func TestRunSQLiteStore_StepResults(t *testing.T) {
	t.Run("success - step result lifecycle", func(t *testing.T) {
		// arrange
		a := generateAgent(t)
		p, err := pipelineStore.CreatePipeline(
			context.Background(),
			"step result pipeline "+a.AgentID,
			nil,
			[]NewStep{{AgentID: util.AsPtr(a.AgentID), StepOrder: 0}},
		)
		assert.NoError(t, err)
		steps, err := pipelineStore.ListPipelineSteps(context.Background(), p.PipelineID)
		assert.NoError(t, err)
		r, err := runStore.CreateRun(context.Background(), p.PipelineID, nil, TriggerManual)
		assert.NoError(t, err)

		// act
		sr, createErr := runStore.CreateStepResult(
			context.Background(), r.RunID, steps[0].StepID, util.AsPtr(a.AgentID), "input text",
		)
		finishErr := runStore.FinishStepResult(
			context.Background(), sr.StepResultID,
			StatusCompleted, util.AsPtr("output text"), 120, 1500, nil,
		)
		results, listErr := runStore.ListRunStepResults(context.Background(), r.RunID)

		// assert
		assert.NoError(t, createErr)
		assert.NoError(t, finishErr)
		assert.NoError(t, listErr)
		assert.Len(t, results, 1)
		assert.Equal(t, StatusCompleted, results[0].Status)
		assert.Equal(t, "output text", *results[0].Output)
		assert.Equal(t, int64(120), results[0].TokensUsed)
		assert.Equal(t, int64(1500), results[0].DurationMS)
	})
}

func TestRunSQLiteStore_ListRunAgentSections(t *testing.T) {
	t.Run("success - only completed steps appear in step order", func(t *testing.T) {
		// arrange
		first := generateAgent(t)
		second := generateAgent(t)
		p, err := pipelineStore.CreatePipeline(
			context.Background(),
			"sections pipeline "+first.AgentID,
			nil,
			[]NewStep{
				{AgentID: util.AsPtr(first.AgentID), StepOrder: 0},
				{AgentID: util.AsPtr(second.AgentID), StepOrder: 1},
			},
		)
		assert.NoError(t, err)
		steps, err := pipelineStore.ListPipelineSteps(context.Background(), p.PipelineID)
		assert.NoError(t, err)
		r, err := runStore.CreateRun(context.Background(), p.PipelineID, nil, TriggerManual)
		assert.NoError(t, err)

		completed, err := runStore.CreateStepResult(
			context.Background(), r.RunID, steps[0].StepID, util.AsPtr(first.AgentID), "in",
		)
		assert.NoError(t, err)
		assert.NoError(t, runStore.FinishStepResult(
			context.Background(), completed.StepResultID,
			StatusCompleted, util.AsPtr("first output"), 10, 100, nil,
		))
		failed, err := runStore.CreateStepResult(
			context.Background(), r.RunID, steps[1].StepID, util.AsPtr(second.AgentID), "in",
		)
		assert.NoError(t, err)
		assert.NoError(t, runStore.FinishStepResult(
			context.Background(), failed.StepResultID,
			StatusFailed, nil, 0, 50, util.AsPtr("boom"),
		))

		// act
		sections, err := runStore.ListRunAgentSections(context.Background(), r.RunID)

		// assert
		assert.NoError(t, err)
		assert.Len(t, sections, 1)
		assert.Equal(t, first.Name, sections[0].AgentName)
		assert.Equal(t, "first output", sections[0].Output)
	})
}

func generateRun(t *testing.T) *Run {
	p := generatePipeline(t)
	r, err := runStore.CreateRun(context.Background(), p.PipelineID, nil, TriggerManual)
	assert.NoError(t, err)
	return r
}
