package pipeline

import (
	"testing"

	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/hvirtan/reportpipe/internal/util"
	"github.com/stretchr/testify/assert"
)

func steps(groups ...*int64) []store.PipelineStep {
	out := make([]store.PipelineStep, len(groups))
	for i, g := range groups {
		out[i] = store.PipelineStep{StepOrder: int64(i), ParallelGroup: g}
	}
	return out
}

func groupSizes(groups []Group) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g.Steps)
	}
	return sizes
}

func TestGroupSteps(t *testing.T) {
	g1 := util.AsPtr(int64(1))
	g2 := util.AsPtr(int64(2))

	t.Run("success - all sequential steps stay singletons", func(t *testing.T) {
		// act
		groups := GroupSteps(steps(nil, nil, nil))

		// assert
		assert.Equal(t, []int{1, 1, 1}, groupSizes(groups))
	})
	t.Run("success - contiguous equal values merge", func(t *testing.T) {
		// act
		groups := GroupSteps(steps(g1, g1, g1))

		// assert
		assert.Equal(t, []int{3}, groupSizes(groups))
	})
	t.Run("success - mixed sequence splits on boundaries", func(t *testing.T) {
		// act
		groups := GroupSteps(steps(nil, g1, g1, g2, g2, nil))

		// assert
		assert.Equal(t, []int{1, 2, 2, 1}, groupSizes(groups))
	})
	t.Run("success - equal values separated by nil do not merge", func(t *testing.T) {
		// act
		groups := GroupSteps(steps(g1, nil, g1))

		// assert
		assert.Equal(t, []int{1, 1, 1}, groupSizes(groups))
	})
	t.Run("success - value change closes the open group", func(t *testing.T) {
		// act
		groups := GroupSteps(steps(g1, g2))

		// assert
		assert.Equal(t, []int{1, 1}, groupSizes(groups))
	})
	t.Run("success - empty input yields no groups", func(t *testing.T) {
		// act
		groups := GroupSteps(nil)

		// assert
		assert.Empty(t, groups)
	})
	t.Run("success - step order survives grouping", func(t *testing.T) {
		// act
		groups := GroupSteps(steps(g1, g1, nil))

		// assert
		assert.Equal(t, int64(0), groups[0].Steps[0].StepOrder)
		assert.Equal(t, int64(1), groups[0].Steps[1].StepOrder)
		assert.Equal(t, int64(2), groups[1].Steps[0].StepOrder)
	})
}
