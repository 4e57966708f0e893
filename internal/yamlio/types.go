// Package yamlio imports and exports the full pipeline configuration
// as multi-document YAML. Cross-references use names instead of ids so
// exported documents are portable between installations.
package yamlio

const (
	APIVersion = "v1"

	KindAgent      = "Agent"
	KindDataSource = "DataSource"
	KindPipeline   = "Pipeline"
	KindSchedule   = "Schedule"
	KindDelivery   = "Delivery"
)

// kindOrder is the creation order on import: referenced kinds first.
var kindOrder = map[string]int{
	KindAgent:      0,
	KindDataSource: 1,
	KindPipeline:   2,
	KindSchedule:   3,
	KindDelivery:   4,
}

type Envelope struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       any      `yaml:"spec"`
}

type Metadata struct {
	Name        string   `yaml:"name"`
	Description *string  `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

type AgentSpec struct {
	Model        string `yaml:"model,omitempty"`
	SystemPrompt string `yaml:"system_prompt"`
}

type DataSourceSpec struct {
	SourceType string         `yaml:"source_type"`
	Config     map[string]any `yaml:"config"`
}

type PipelineSpec struct {
	Steps []PipelineStepSpec `yaml:"steps"`
}

type PipelineStepSpec struct {
	StepOrder      int64  `yaml:"step_order"`
	AgentName      string `yaml:"agent_name,omitempty"`
	DataSourceName string `yaml:"data_source_name,omitempty"`
	ParallelGroup  *int64 `yaml:"parallel_group,omitempty"`
}

type ScheduleSpec struct {
	PipelineName   string `yaml:"pipeline_name"`
	CronExpression string `yaml:"cron_expression"`
	Timezone       string `yaml:"timezone,omitempty"`
	Enabled        *bool  `yaml:"enabled,omitempty"`
}

type DeliverySpec struct {
	ScheduleName string         `yaml:"schedule_name"`
	Channel      string         `yaml:"channel"`
	Enabled      *bool          `yaml:"enabled,omitempty"`
	Config       map[string]any `yaml:"config"`
}

// Resource identifies one imported document in an ImportResult.
type Resource struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// ImportResult reports what an import did. Individual document errors
// are collected here instead of aborting the whole import.
type ImportResult struct {
	Created []Resource `json:"created"`
	Skipped []Resource `json:"skipped"`
	Errors  []string   `json:"errors"`
}
