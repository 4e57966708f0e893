package yamlio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hvirtan/reportpipe/internal/poller"
	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/hvirtan/reportpipe/internal/util"
)

// Import creates resources from multi-document YAML in dependency
// order. Documents whose name already exists are skipped, and one bad
// document never aborts the rest: its error is collected in the result.
func (yio *IO) Import(ctx context.Context, yamlText string) (*ImportResult, error) {
	envelopes, err := decodeEnvelopes(yamlText)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(envelopes, func(a, b Envelope) int {
		return kindOrder[a.Kind] - kindOrder[b.Kind]
	})

	result := &ImportResult{
		Created: make([]Resource, 0),
		Skipped: make([]Resource, 0),
		Errors:  make([]string, 0),
	}

	refs, err := yio.existingNames(ctx)
	if err != nil {
		return nil, err
	}

	for _, envelope := range envelopes {
		res := Resource{Kind: envelope.Kind, Name: envelope.Metadata.Name}
		created, err := yio.importOne(ctx, envelope, refs)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("%s %q: %v", res.Kind, res.Name, err))
		case created:
			result.Created = append(result.Created, res)
		default:
			result.Skipped = append(result.Skipped, res)
		}
	}
	return result, nil
}

func decodeEnvelopes(yamlText string) ([]Envelope, error) {
	decoder := yaml.NewDecoder(strings.NewReader(yamlText))
	envelopes := make([]Envelope, 0)
	for {
		var envelope Envelope
		if err := decoder.Decode(&envelope); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding yaml document: %w", err)
		}
		if envelope.Kind == "" {
			continue
		}
		if _, ok := kindOrder[envelope.Kind]; !ok {
			return nil, fmt.Errorf("unknown kind %q", envelope.Kind)
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}

// nameRefs resolves cross-references during an import: names seen in
// the database plus names created by earlier documents of the batch.
type nameRefs struct {
	agents    map[string]string
	sources   map[string]string
	pipelines map[string]string
	schedules map[string]string
}

func (yio *IO) existingNames(ctx context.Context) (*nameRefs, error) {
	refs := &nameRefs{
		agents:    map[string]string{},
		sources:   map[string]string{},
		pipelines: map[string]string{},
		schedules: map[string]string{},
	}
	agents, err := yio.agents.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		refs.agents[a.Name] = a.AgentID
	}
	sources, err := yio.sources.ListDataSources(ctx)
	if err != nil {
		return nil, err
	}
	for _, ds := range sources {
		refs.sources[ds.Name] = ds.DataSourceID
	}
	pipelines, err := yio.pipelines.ListPipelines(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pipelines {
		refs.pipelines[p.Name] = p.PipelineID
	}
	schedules, err := yio.schedules.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range schedules {
		refs.schedules[scheduleName(s.PipelineName)] = s.ScheduleID
	}
	return refs, nil
}

func (yio *IO) importOne(ctx context.Context, envelope Envelope, refs *nameRefs) (bool, error) {
	name := envelope.Metadata.Name
	switch envelope.Kind {
	case KindAgent:
		if _, exists := refs.agents[name]; exists {
			return false, nil
		}
		var spec AgentSpec
		if err := decodeSpec(envelope.Spec, &spec); err != nil {
			return false, err
		}
		model := spec.Model
		if model == "" {
			model = yio.defaultModel
		}
		a, err := yio.agents.CreateAgent(
			ctx, name, envelope.Metadata.Description, spec.SystemPrompt, model,
		)
		if err != nil {
			return false, err
		}
		refs.agents[name] = a.AgentID
		return true, nil

	case KindDataSource:
		if _, exists := refs.sources[name]; exists {
			return false, nil
		}
		var spec DataSourceSpec
		if err := decodeSpec(envelope.Spec, &spec); err != nil {
			return false, err
		}
		if !store.ValidSourceType(spec.SourceType) {
			return false, fmt.Errorf("unknown source type %q", spec.SourceType)
		}
		configJSON, err := json.Marshal(spec.Config)
		if err != nil {
			return false, err
		}
		ds, err := yio.sources.CreateDataSource(
			ctx, name, store.SourceType(spec.SourceType), string(configJSON),
		)
		if err != nil {
			return false, err
		}
		refs.sources[name] = ds.DataSourceID
		return true, nil

	case KindPipeline:
		if _, exists := refs.pipelines[name]; exists {
			return false, nil
		}
		var spec PipelineSpec
		if err := decodeSpec(envelope.Spec, &spec); err != nil {
			return false, err
		}
		steps := make([]store.NewStep, 0, len(spec.Steps))
		for _, s := range spec.Steps {
			step := store.NewStep{StepOrder: s.StepOrder, ParallelGroup: s.ParallelGroup}
			if s.AgentName != "" {
				agentID, ok := refs.agents[s.AgentName]
				if !ok {
					return false, fmt.Errorf("step %d references unknown agent %q", s.StepOrder, s.AgentName)
				}
				step.AgentID = util.AsPtr(agentID)
			}
			if s.DataSourceName != "" {
				sourceID, ok := refs.sources[s.DataSourceName]
				if !ok {
					return false, fmt.Errorf("step %d references unknown data source %q", s.StepOrder, s.DataSourceName)
				}
				step.DataSourceID = util.AsPtr(sourceID)
			}
			steps = append(steps, step)
		}
		p, err := yio.pipelines.CreatePipeline(ctx, name, envelope.Metadata.Description, steps)
		if err != nil {
			return false, err
		}
		refs.pipelines[name] = p.PipelineID
		return true, nil

	case KindSchedule:
		if _, exists := refs.schedules[name]; exists {
			return false, nil
		}
		var spec ScheduleSpec
		if err := decodeSpec(envelope.Spec, &spec); err != nil {
			return false, err
		}
		pipelineID, ok := refs.pipelines[spec.PipelineName]
		if !ok {
			return false, fmt.Errorf("references unknown pipeline %q", spec.PipelineName)
		}
		if err := poller.ValidateCron(spec.CronExpression); err != nil {
			return false, err
		}
		timezone := spec.Timezone
		if timezone == "" {
			timezone = "UTC"
		}
		enabled := spec.Enabled == nil || *spec.Enabled
		next, err := poller.NextRun(spec.CronExpression, timezone, time.Now().UTC())
		if err != nil {
			return false, err
		}
		s, err := yio.schedules.CreateSchedule(
			ctx, pipelineID, spec.CronExpression, timezone, enabled, &next,
		)
		if err != nil {
			return false, err
		}
		refs.schedules[name] = s.ScheduleID
		return true, nil

	case KindDelivery:
		var spec DeliverySpec
		if err := decodeSpec(envelope.Spec, &spec); err != nil {
			return false, err
		}
		scheduleID, ok := refs.schedules[spec.ScheduleName]
		if !ok {
			return false, fmt.Errorf("references unknown schedule %q", spec.ScheduleName)
		}
		if !store.ValidChannel(store.Channel(spec.Channel)) {
			return false, fmt.Errorf("unknown channel %q", spec.Channel)
		}
		existing, err := yio.deliveries.ListScheduleDeliveries(ctx, scheduleID)
		if err != nil {
			return false, err
		}
		for _, d := range existing {
			if d.Channel == store.Channel(spec.Channel) {
				return false, nil
			}
		}
		configJSON, err := json.Marshal(spec.Config)
		if err != nil {
			return false, err
		}
		enabled := spec.Enabled == nil || *spec.Enabled
		_, err = yio.deliveries.CreateDelivery(
			ctx, scheduleID, store.Channel(spec.Channel), string(configJSON), enabled,
		)
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, fmt.Errorf("unknown kind %q", envelope.Kind)
}

// decodeSpec round-trips the loosely typed spec value into its
// per-kind struct.
func decodeSpec(spec, out any) error {
	raw, err := yaml.Marshal(spec)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, out)
}
