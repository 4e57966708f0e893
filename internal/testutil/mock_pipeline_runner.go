package testutil

import (
	"context"

	"github.com/hvirtan/reportpipe/internal/pipeline"
	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) ExecutePipeline(
	ctx context.Context,
	pipelineID string,
	trigger store.TriggerType,
	scheduleID *string,
	initialInput string,
) (*pipeline.Result, error) {
	args := m.Called(ctx, pipelineID, trigger, scheduleID, initialInput)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Result), args.Error(1)
}
