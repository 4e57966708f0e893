package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hvirtan/reportpipe/internal/pipeline"
	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/hvirtan/reportpipe/internal/testutil"
	"github.com/hvirtan/reportpipe/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRunHandler_PostRun(t *testing.T) {
	t.Run("success - run accepted and pipeline executed", func(t *testing.T) {
		// arrange
		p := &store.Pipeline{PipelineID: "pipeline-1", Name: "weekly sales"}
		mockPipelines := new(testutil.MockPipelineReader)
		mockPipelines.On("ReadPipelineByID", mock.Anything, p.PipelineID).Return(p, nil)
		executed := make(chan struct{})
		mockRunner := new(testutil.MockPipelineRunner)
		mockRunner.
			On("ExecutePipeline", mock.Anything, p.PipelineID, store.TriggerManual, (*string)(nil), "").
			Run(func(args mock.Arguments) { close(executed) }).
			Return(&pipeline.Result{RunID: "run-1", Status: store.StatusCompleted}, nil)

		e := echo.New()
		req := httptest.NewRequest(
			http.MethodPost, "/runs",
			strings.NewReader(`{"pipeline_id": "pipeline-1"}`),
		)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := NewRunHandler(mockPipelines, new(testutil.MockRunReader), mockRunner)

		// act
		err := h.PostRun(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		var body map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "pipeline-1", body["pipeline_id"])
		assert.Equal(t, "manual", body["trigger_type"])
		select {
		case <-executed:
		case <-time.After(time.Second):
			t.Fatal("pipeline was not executed")
		}
		mockRunner.AssertExpectations(t)
	})
	t.Run("failure - unknown pipeline", func(t *testing.T) {
		// arrange
		mockPipelines := new(testutil.MockPipelineReader)
		mockPipelines.On("ReadPipelineByID", mock.Anything, "missing").
			Return(nil, sql.ErrNoRows)

		e := echo.New()
		req := httptest.NewRequest(
			http.MethodPost, "/runs",
			strings.NewReader(`{"pipeline_id": "missing"}`),
		)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := NewRunHandler(mockPipelines, new(testutil.MockRunReader), new(testutil.MockPipelineRunner))

		// act
		err := h.PostRun(c)

		// assert
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
	t.Run("failure - missing pipeline id", func(t *testing.T) {
		// arrange
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := NewRunHandler(
			new(testutil.MockPipelineReader),
			new(testutil.MockRunReader),
			new(testutil.MockPipelineRunner),
		)

		// act
		err := h.PostRun(c)

		// assert
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestRunHandler_PostObjectStorageEvent(t *testing.T) {
	t.Run("success - object key passed as initial input", func(t *testing.T) {
		// arrange
		p := &store.Pipeline{PipelineID: "pipeline-2", Name: "inventory"}
		mockPipelines := new(testutil.MockPipelineReader)
		mockPipelines.On("ReadPipelineByID", mock.Anything, p.PipelineID).Return(p, nil)
		executed := make(chan struct{})
		mockRunner := new(testutil.MockPipelineRunner)
		mockRunner.
			On(
				"ExecutePipeline", mock.Anything, p.PipelineID, store.TriggerEvent,
				(*string)(nil), `Object storage event for key "uploads/latest.csv".`,
			).
			Run(func(args mock.Arguments) { close(executed) }).
			Return(&pipeline.Result{RunID: "run-2", Status: store.StatusCompleted}, nil)

		e := echo.New()
		req := httptest.NewRequest(
			http.MethodPost, "/events/object-storage",
			strings.NewReader(`{"pipeline_id": "pipeline-2", "object_key": "uploads/latest.csv"}`),
		)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := NewRunHandler(mockPipelines, new(testutil.MockRunReader), mockRunner)

		// act
		err := h.PostObjectStorageEvent(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		var body map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "event", body["trigger_type"])
		select {
		case <-executed:
		case <-time.After(time.Second):
			t.Fatal("pipeline was not executed")
		}
		mockRunner.AssertExpectations(t)
	})
}

func TestRunHandler_GetRun(t *testing.T) {
	t.Run("success - run with step results", func(t *testing.T) {
		// arrange
		run := &store.Run{
			RunID:         "run-3",
			RunPipelineID: "pipeline-3",
			Status:        store.StatusCompleted,
			TriggerType:   store.TriggerScheduled,
			ScheduleID:    util.AsPtr("schedule-3"),
			StartedOn:     time.Now().UTC(),
		}
		results := []store.StepResult{
			{
				StepResultID: "sr-1",
				ResultRunID:  run.RunID,
				Status:       store.StatusCompleted,
				Output:       util.AsPtr("quarterly summary"),
				TokensUsed:   42,
				DurationMS:   1200,
			},
		}
		mockRuns := new(testutil.MockRunReader)
		mockRuns.On("ReadRunByID", mock.Anything, run.RunID).Return(run, nil)
		mockRuns.On("ListRunStepResults", mock.Anything, run.RunID).Return(results, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/runs/run-3", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/runs/:run_id")
		c.SetParamNames("run_id")
		c.SetParamValues(run.RunID)
		h := NewRunHandler(
			new(testutil.MockPipelineReader), mockRuns, new(testutil.MockPipelineRunner),
		)

		// act
		err := h.GetRun(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		var response RunResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, run.RunID, response.RunID)
		assert.Equal(t, "completed", response.Status)
		assert.Equal(t, "scheduled", response.TriggerType)
		assert.Len(t, response.StepResults, 1)
		assert.Equal(t, int64(42), response.StepResults[0].TokensUsed)
	})
	t.Run("failure - run not found", func(t *testing.T) {
		// arrange
		mockRuns := new(testutil.MockRunReader)
		mockRuns.On("ReadRunByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/runs/missing", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/runs/:run_id")
		c.SetParamNames("run_id")
		c.SetParamValues("missing")
		h := NewRunHandler(
			new(testutil.MockPipelineReader), mockRuns, new(testutil.MockPipelineRunner),
		)

		// act
		err := h.GetRun(c)

		// assert
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}
