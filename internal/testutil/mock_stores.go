package testutil

import (
	"context"

	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockPipelineReader struct {
	mock.Mock
}

func (m *MockPipelineReader) ReadPipelineByID(
	ctx context.Context,
	pipelineID string,
) (*store.Pipeline, error) {
	args := m.Called(ctx, pipelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Pipeline), nil
}

type MockRunReader struct {
	mock.Mock
}

func (m *MockRunReader) ReadRunByID(ctx context.Context, runID string) (*store.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), nil
}

func (m *MockRunReader) ListRunStepResults(
	ctx context.Context,
	runID string,
) ([]store.StepResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.StepResult), nil
}

type MockReportReader struct {
	mock.Mock
}

func (m *MockReportReader) ReadReportByID(
	ctx context.Context,
	reportID string,
) (*store.Report, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Report), nil
}
