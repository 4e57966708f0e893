package yamlio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hvirtan/reportpipe/internal/store"
)

type IO struct {
	agents       store.AgentStore
	sources      store.DataSourceStore
	pipelines    store.PipelineStore
	schedules    store.ScheduleStore
	deliveries   store.DeliveryStore
	defaultModel string
}

func NewIO(
	agents store.AgentStore,
	sources store.DataSourceStore,
	pipelines store.PipelineStore,
	schedules store.ScheduleStore,
	deliveries store.DeliveryStore,
	defaultModel string,
) *IO {
	return &IO{
		agents:       agents,
		sources:      sources,
		pipelines:    pipelines,
		schedules:    schedules,
		deliveries:   deliveries,
		defaultModel: defaultModel,
	}
}

// scheduleName derives the portable name of a schedule. Schedules have
// no name column, so exports synthesize one from the pipeline name.
func scheduleName(pipelineName string) string {
	return pipelineName + "-schedule"
}

// Export renders the whole configuration as multi-document YAML in
// dependency order: agents, data sources, pipelines, schedules,
// deliveries.
func (yio *IO) Export(ctx context.Context) (string, error) {
	docs := make([]string, 0)
	appendDoc := func(kind string, meta Metadata, spec any) error {
		out, err := yaml.Marshal(Envelope{
			APIVersion: APIVersion,
			Kind:       kind,
			Metadata:   meta,
			Spec:       spec,
		})
		if err != nil {
			return fmt.Errorf("marshaling %s %q: %w", kind, meta.Name, err)
		}
		docs = append(docs, string(out))
		return nil
	}

	agents, err := yio.agents.ListAgents(ctx)
	if err != nil {
		return "", err
	}
	agentNames := make(map[string]string, len(agents))
	for _, a := range agents {
		agentNames[a.AgentID] = a.Name
		err := appendDoc(KindAgent, Metadata{Name: a.Name, Description: a.Description}, AgentSpec{
			Model:        a.Model,
			SystemPrompt: a.SystemPrompt,
		})
		if err != nil {
			return "", err
		}
	}

	sources, err := yio.sources.ListDataSources(ctx)
	if err != nil {
		return "", err
	}
	sourceNames := make(map[string]string, len(sources))
	for _, ds := range sources {
		sourceNames[ds.DataSourceID] = ds.Name
		var config map[string]any
		if err := json.Unmarshal([]byte(ds.ConfigJSON), &config); err != nil {
			return "", fmt.Errorf("data source %q config: %w", ds.Name, err)
		}
		err := appendDoc(KindDataSource, Metadata{Name: ds.Name}, DataSourceSpec{
			SourceType: string(ds.SourceType),
			Config:     config,
		})
		if err != nil {
			return "", err
		}
	}

	pipelines, err := yio.pipelines.ListPipelines(ctx)
	if err != nil {
		return "", err
	}
	pipelineNames := make(map[string]string, len(pipelines))
	for _, p := range pipelines {
		pipelineNames[p.PipelineID] = p.Name
		steps, err := yio.pipelines.ListPipelineSteps(ctx, p.PipelineID)
		if err != nil {
			return "", err
		}
		stepSpecs := make([]PipelineStepSpec, 0, len(steps))
		for _, s := range steps {
			spec := PipelineStepSpec{StepOrder: s.StepOrder, ParallelGroup: s.ParallelGroup}
			if s.AgentID != nil {
				spec.AgentName = agentNames[*s.AgentID]
			}
			if s.DataSourceID != nil {
				spec.DataSourceName = sourceNames[*s.DataSourceID]
			}
			stepSpecs = append(stepSpecs, spec)
		}
		err = appendDoc(KindPipeline, Metadata{Name: p.Name, Description: p.Description}, PipelineSpec{
			Steps: stepSpecs,
		})
		if err != nil {
			return "", err
		}
	}

	schedules, err := yio.schedules.ListSchedules(ctx)
	if err != nil {
		return "", err
	}
	scheduleNames := make(map[string]string, len(schedules))
	for _, s := range schedules {
		name := scheduleName(s.PipelineName)
		scheduleNames[s.ScheduleID] = name
		enabled := s.Enabled
		err := appendDoc(KindSchedule, Metadata{Name: name}, ScheduleSpec{
			PipelineName:   s.PipelineName,
			CronExpression: s.CronExpression,
			Timezone:       s.Timezone,
			Enabled:        &enabled,
		})
		if err != nil {
			return "", err
		}
	}

	for _, s := range schedules {
		deliveries, err := yio.deliveries.ListScheduleDeliveries(ctx, s.ScheduleID)
		if err != nil {
			return "", err
		}
		for _, d := range deliveries {
			var config map[string]any
			if err := json.Unmarshal([]byte(d.ConfigJSON), &config); err != nil {
				return "", fmt.Errorf("delivery %s config: %w", d.DeliveryID, err)
			}
			name := fmt.Sprintf("%s-%s", scheduleNames[s.ScheduleID], d.Channel)
			enabled := d.Enabled
			err := appendDoc(KindDelivery, Metadata{Name: name}, DeliverySpec{
				ScheduleName: scheduleNames[s.ScheduleID],
				Channel:      string(d.Channel),
				Enabled:      &enabled,
				Config:       config,
			})
			if err != nil {
				return "", err
			}
		}
	}

	return strings.Join(docs, "---\n"), nil
}
