package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hvirtan/reportpipe/internal/datasource"
	"github.com/hvirtan/reportpipe/internal/llm"
	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/hvirtan/reportpipe/internal/util"
)

// StepOutcome is what a single executed step produced. Err is set when
// the step failed; the step result row is already finalized either way.
type StepOutcome struct {
	StepResultID string
	AgentName    string
	Output       string
	TokensUsed   int64
	DurationMS   int64
	Err          error
}

type Executor struct {
	runs      store.RunStore
	agents    store.AgentStore
	sources   store.DataSourceStore
	fetcher   datasource.Fetcher
	completer llm.Completer
}

func NewExecutor(
	runs store.RunStore,
	agents store.AgentStore,
	sources store.DataSourceStore,
	fetcher datasource.Fetcher,
	completer llm.Completer,
) *Executor {
	return &Executor{
		runs:      runs,
		agents:    agents,
		sources:   sources,
		fetcher:   fetcher,
		completer: completer,
	}
}

// ExecuteStep records a running step result, assembles the step input,
// calls the model and finalizes the result row exactly once.
func (e *Executor) ExecuteStep(
	ctx context.Context,
	runID string,
	step store.PipelineStep,
	input string,
) StepOutcome {
	if step.AgentID == nil {
		return e.failWithoutResult(ctx, runID, step, input, errors.New("step has no agent"))
	}
	agent, err := e.agents.ReadAgentByID(ctx, *step.AgentID)
	if err != nil {
		return e.failWithoutResult(ctx, runID, step, input,
			fmt.Errorf("reading step agent: %w", err))
	}

	fullInput, inputErr := e.assembleInput(ctx, step, input)

	sr, err := e.runs.CreateStepResult(ctx, runID, step.StepID, step.AgentID, fullInput)
	if err != nil {
		return StepOutcome{AgentName: agent.Name, Err: err}
	}
	outcome := StepOutcome{StepResultID: sr.StepResultID, AgentName: agent.Name}

	if inputErr != nil {
		outcome.Err = inputErr
		e.finishFailed(ctx, sr.StepResultID, 0, inputErr)
		return outcome
	}

	start := time.Now()
	res, err := e.completer.Complete(ctx, llm.Request{
		Model:        agent.Model,
		SystemPrompt: agent.SystemPrompt,
		Input:        fullInput,
	})
	outcome.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		outcome.Err = err
		e.finishFailed(ctx, sr.StepResultID, outcome.DurationMS, err)
		return outcome
	}

	outcome.Output = res.OutputText
	outcome.TokensUsed = res.InputTokens + res.OutputTokens
	if err := e.runs.FinishStepResult(
		ctx, sr.StepResultID,
		store.StatusCompleted,
		util.AsPtr(outcome.Output),
		outcome.TokensUsed,
		outcome.DurationMS,
		nil,
	); err != nil {
		outcome.Err = err
	}
	return outcome
}

// assembleInput appends a digest of the step's data source, when one is
// configured, to the text handed down from the previous stage.
func (e *Executor) assembleInput(
	ctx context.Context,
	step store.PipelineStep,
	input string,
) (string, error) {
	if step.DataSourceID == nil {
		return input, nil
	}
	ds, err := e.sources.ReadDataSourceByID(ctx, *step.DataSourceID)
	if err != nil {
		return input, fmt.Errorf("reading step data source: %w", err)
	}
	res, err := e.fetcher.Fetch(ctx, ds)
	if err != nil {
		return input, err
	}
	digest := datasource.Digest(res, datasource.DefaultDigestRows)
	if input == "" {
		return digest, nil
	}
	return input + "\n\n" + digest, nil
}

func (e *Executor) finishFailed(ctx context.Context, stepResultID string, durationMS int64, cause error) {
	message := cause.Error()
	_ = e.runs.FinishStepResult(
		ctx, stepResultID,
		store.StatusFailed,
		nil,
		0,
		durationMS,
		&message,
	)
}

// failWithoutResult covers failures before an agent is known. A failed
// step result row is still recorded so the run history shows the step.
func (e *Executor) failWithoutResult(
	ctx context.Context,
	runID string,
	step store.PipelineStep,
	input string,
	cause error,
) StepOutcome {
	outcome := StepOutcome{Err: cause}
	sr, err := e.runs.CreateStepResult(ctx, runID, step.StepID, step.AgentID, input)
	if err != nil {
		return outcome
	}
	outcome.StepResultID = sr.StepResultID
	e.finishFailed(ctx, sr.StepResultID, 0, cause)
	return outcome
}

// MergeOutputs joins the outputs of a parallel group into the input for
// the next stage. A single output passes through unchanged.
func MergeOutputs(outcomes []StepOutcome) string {
	if len(outcomes) == 1 {
		return outcomes[0].Output
	}
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		parts = append(parts, fmt.Sprintf("--- %s ---\n%s", o.AgentName, o.Output))
	}
	return strings.Join(parts, "\n\n")
}
