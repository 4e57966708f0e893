package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/hvirtan/reportpipe/internal/pipeline"
	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/labstack/echo/v4"
)

type PipelineRunner interface {
	ExecutePipeline(
		ctx context.Context,
		pipelineID string,
		trigger store.TriggerType,
		scheduleID *string,
		initialInput string,
	) (*pipeline.Result, error)
}

type PipelineReader interface {
	ReadPipelineByID(ctx context.Context, pipelineID string) (*store.Pipeline, error)
}

type RunReader interface {
	ReadRunByID(ctx context.Context, runID string) (*store.Run, error)
	ListRunStepResults(ctx context.Context, runID string) ([]store.StepResult, error)
}

type RunHandler struct {
	pipelines PipelineReader
	runs      RunReader
	runner    PipelineRunner
}

func NewRunHandler(
	pipelines PipelineReader,
	runs RunReader,
	runner PipelineRunner,
) *RunHandler {
	return &RunHandler{
		pipelines: pipelines,
		runs:      runs,
		runner:    runner,
	}
}

func SetupRunRoutes(e *echo.Echo, h *RunHandler) {
	e.POST("/runs", h.PostRun)
	e.POST("/events/object-storage", h.PostObjectStorageEvent)
	e.GET("/runs/:run_id", h.GetRun)
}

func (h *RunHandler) PostRun(c echo.Context) error {
	rp := new(RunTriggerParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid run trigger data")
	}
	return h.triggerPipeline(c, rp.PipelineID, store.TriggerManual, "")
}

func (h *RunHandler) PostObjectStorageEvent(c echo.Context) error {
	ep := new(ObjectStorageEventParams)
	if err := c.Bind(ep); err != nil {
		return newError(err, http.StatusBadRequest, "invalid event data")
	}
	input := ""
	if ep.ObjectKey != "" {
		input = fmt.Sprintf("Object storage event for key %q.", ep.ObjectKey)
	}
	return h.triggerPipeline(c, ep.PipelineID, store.TriggerEvent, input)
}

func (h *RunHandler) triggerPipeline(
	c echo.Context,
	pipelineID string,
	trigger store.TriggerType,
	initialInput string,
) error {
	if pipelineID == "" {
		return newError(nil, http.StatusBadRequest, "pipeline_id is required")
	}
	p, err := h.pipelines.ReadPipelineByID(c.Request().Context(), pipelineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "pipeline not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read pipeline")
	}

	// the run outlives the request
	go func() {
		if _, err := h.runner.ExecutePipeline(
			context.Background(), p.PipelineID, trigger, nil, initialInput,
		); err != nil {
			log.Printf("err executing pipeline %s: %+v\n", p.PipelineID, err)
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]string{
		"pipeline_id":  p.PipelineID,
		"trigger_type": string(trigger),
		"status":       "accepted",
	})
}

func (h *RunHandler) GetRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid run id")
	}
	run, err := h.runs.ReadRunByID(c.Request().Context(), rp.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "run not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read run")
	}
	results, err := h.runs.ListRunStepResults(c.Request().Context(), run.RunID)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list step results")
	}

	response := RunResponse{
		RunID:       run.RunID,
		PipelineID:  run.RunPipelineID,
		ScheduleID:  run.ScheduleID,
		Status:      string(run.Status),
		TriggerType: string(run.TriggerType),
		Error:       run.Error,
		StartedOn:   run.StartedOn,
		EndedOn:     run.EndedOn,
		StepResults: make([]StepResultResponse, 0, len(results)),
	}
	for _, sr := range results {
		response.StepResults = append(response.StepResults, StepResultResponse{
			StepResultID: sr.StepResultID,
			StepID:       sr.StepID,
			AgentID:      sr.AgentID,
			Status:       string(sr.Status),
			Output:       sr.Output,
			TokensUsed:   sr.TokensUsed,
			DurationMS:   sr.DurationMS,
			Error:        sr.Error,
		})
	}
	return c.JSON(http.StatusOK, response)
}
