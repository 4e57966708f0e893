// Package pipeline runs report pipelines: it groups steps into
// execution stages, runs each stage's steps against the model and
// records results.
package pipeline

import "github.com/hvirtan/reportpipe/internal/store"

// Group is a set of steps that execute concurrently. Steps without a
// parallel group value always form a group of one.
type Group struct {
	Steps []store.PipelineStep
}

// GroupSteps partitions ordered steps into sequential execution groups.
// Contiguous steps sharing the same non-nil parallel group value merge
// into one group; a nil value closes any open group and emits the step
// on its own. Equal values separated by other steps do not merge.
func GroupSteps(steps []store.PipelineStep) []Group {
	groups := make([]Group, 0, len(steps))
	var open *int64
	var current []store.PipelineStep

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, Group{Steps: current})
			current = nil
		}
		open = nil
	}

	for _, step := range steps {
		if step.ParallelGroup == nil {
			flush()
			groups = append(groups, Group{Steps: []store.PipelineStep{step}})
			continue
		}
		if open == nil || *open != *step.ParallelGroup {
			flush()
			v := *step.ParallelGroup
			open = &v
		}
		current = append(current, step)
	}
	flush()
	return groups
}
