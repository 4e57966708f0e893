package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hvirtan/reportpipe/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestPipelineSQLiteStore_CreatePipeline(t *testing.T) {
	t.Run("success - pipeline created with steps", func(t *testing.T) {
		// arrange
		a := generateAgent(t)
		name := fmt.Sprintf("weekly sales %d", time.Now().UnixNano())
		description := "weekly sales report"
		steps := []NewStep{
			{AgentID: util.AsPtr(a.AgentID), StepOrder: 0},
			{AgentID: util.AsPtr(a.AgentID), StepOrder: 1, ParallelGroup: util.AsPtr(int64(1))},
			{AgentID: util.AsPtr(a.AgentID), StepOrder: 2, ParallelGroup: util.AsPtr(int64(1))},
		}

		// act
		p, err := pipelineStore.CreatePipeline(
			context.Background(), name, util.AsPtr(description), steps,
		)
		persisted, stepsErr := pipelineStore.ListPipelineSteps(
			context.Background(), p.PipelineID,
		)

		// assert
		assert.NoError(t, err)
		assert.NoError(t, stepsErr)
		assert.NotEmpty(t, p.PipelineID)
		assert.Equal(t, name, p.Name)
		assert.Equal(t, description, *p.Description)
		assert.Len(t, persisted, 3)
		assert.Nil(t, persisted[0].ParallelGroup)
		assert.Equal(t, int64(1), *persisted[1].ParallelGroup)
		assert.Equal(t, int64(1), *persisted[2].ParallelGroup)
	})
	t.Run("success - pipeline created without steps", func(t *testing.T) {
		// arrange
		name := fmt.Sprintf("empty pipeline %d", time.Now().UnixNano())

		// act
		p, err := pipelineStore.CreatePipeline(context.Background(), name, nil, nil)
		persisted, stepsErr := pipelineStore.ListPipelineSteps(
			context.Background(), p.PipelineID,
		)

		// assert
		assert.NoError(t, err)
		assert.NoError(t, stepsErr)
		assert.Empty(t, persisted)
	})
}

func TestPipelineSQLiteStore_ReadPipelineByID(t *testing.T) {
	t.Run("success - pipeline found", func(t *testing.T) {
		// arrange
		expected := generatePipeline(t)

		// act
		p, err := pipelineStore.ReadPipelineByID(context.Background(), expected.PipelineID)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, expected.Name, p.Name)
		assert.Equal(t, expected.Description, p.Description)
	})
	t.Run("failure - pipeline not found", func(t *testing.T) {
		// arrange
		id := uuid.NewString()

		// act
		p, err := pipelineStore.ReadPipelineByID(context.Background(), id)

		// assert
		assert.Error(t, err)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, p)
	})
}

func TestPipelineSQLiteStore_ReadPipelineByName(t *testing.T) {
	t.Run("success - pipeline found by name", func(t *testing.T) {
		// arrange
		expected := generatePipeline(t)

		// act
		p, err := pipelineStore.ReadPipelineByName(context.Background(), expected.Name)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, expected.PipelineID, p.PipelineID)
	})
}

func TestPipelineSQLiteStore_ListPipelineSteps(t *testing.T) {
	t.Run("success - steps ordered by step order", func(t *testing.T) {
		// arrange
		a := generateAgent(t)
		p, err := pipelineStore.CreatePipeline(
			context.Background(),
			fmt.Sprintf("ordered pipeline %d", time.Now().UnixNano()),
			nil,
			[]NewStep{
				{AgentID: util.AsPtr(a.AgentID), StepOrder: 2},
				{AgentID: util.AsPtr(a.AgentID), StepOrder: 0},
				{AgentID: util.AsPtr(a.AgentID), StepOrder: 1},
			},
		)
		assert.NoError(t, err)

		// act
		steps, err := pipelineStore.ListPipelineSteps(context.Background(), p.PipelineID)

		// assert
		assert.NoError(t, err)
		assert.Len(t, steps, 3)
		assert.Equal(t, int64(0), steps[0].StepOrder)
		assert.Equal(t, int64(1), steps[1].StepOrder)
		assert.Equal(t, int64(2), steps[2].StepOrder)
	})
}

func TestPipelineSQLiteStore_ReplacePipelineSteps(t *testing.T) {
	t.Run("success - steps replaced", func(t *testing.T) {
		// arrange
		a := generateAgent(t)
		p := generatePipeline(t)

		// act
		replaceErr := pipelineStore.ReplacePipelineSteps(
			context.Background(),
			p.PipelineID,
			[]NewStep{
				{AgentID: util.AsPtr(a.AgentID), StepOrder: 0},
				{AgentID: util.AsPtr(a.AgentID), StepOrder: 1},
			},
		)
		steps, listErr := pipelineStore.ListPipelineSteps(context.Background(), p.PipelineID)

		// assert
		assert.NoError(t, replaceErr)
		assert.NoError(t, listErr)
		assert.Len(t, steps, 2)
	})
}

func TestPipelineSQLiteStore_DeletePipeline(t *testing.T) {
	t.Run("success - pipeline and steps are deleted", func(t *testing.T) {
		// arrange
		a := generateAgent(t)
		p, err := pipelineStore.CreatePipeline(
			context.Background(),
			fmt.Sprintf("doomed pipeline %d", time.Now().UnixNano()),
			nil,
			[]NewStep{{AgentID: util.AsPtr(a.AgentID), StepOrder: 0}},
		)
		assert.NoError(t, err)

		// act
		deleteErr := pipelineStore.DeletePipeline(context.Background(), p.PipelineID)
		read, readErr := pipelineStore.ReadPipelineByID(context.Background(), p.PipelineID)
		steps, stepsErr := pipelineStore.ListPipelineSteps(context.Background(), p.PipelineID)

		// assert
		assert.NoError(t, deleteErr)
		assert.Error(t, readErr)
		assert.Nil(t, read)
		assert.NoError(t, stepsErr)
		assert.Empty(t, steps)
	})
}

func TestPipelineSQLiteStore_ListPipelines(t *testing.T) {
	t.Run("success - pipelines found", func(t *testing.T) {
		// arrange
		expected := generatePipeline(t)

		// act
		pipelines, err := pipelineStore.ListPipelines(context.Background())

		// assert
		assert.NoError(t, err)
		assert.True(t, len(pipelines) >= 1)
		assert.True(t, slices.ContainsFunc(pipelines, func(p *Pipeline) bool {
			return p.PipelineID == expected.PipelineID
		}))
	})
}

func generatePipeline(t *testing.T) *Pipeline {
	a := generateAgent(t)
	p, err := pipelineStore.CreatePipeline(
		context.Background(),
		fmt.Sprintf("pipeline%d", time.Now().UnixNano()),
		util.AsPtr("test pipeline"),
		[]NewStep{{AgentID: util.AsPtr(a.AgentID), StepOrder: 0}},
	)
	assert.NoError(t, err)
	return p
}
