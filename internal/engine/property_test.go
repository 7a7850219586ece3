package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/shaiso/flowedit/internal/domain"
)

// acyclicSteps генерирует ацикличный набор шагов в произвольном порядке.
// Шаг i может зависеть только от шагов с меньшим номером, затем порядок
// перемешивается.
func acyclicSteps(rt *rapid.T) []domain.WorkflowStep {
	n := rapid.IntRange(0, 12).Draw(rt, "steps")

	steps := make([]domain.WorkflowStep, 0, n)
	for i := 0; i < n; i++ {
		deps := []string{}
		for j := 0; j < i; j++ {
			if rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("edge_%d_%d", i, j)) == 0 {
				deps = append(deps, fmt.Sprintf("s%d", j))
			}
		}
		steps = append(steps, step(fmt.Sprintf("s%d", i), deps...))
	}

	return rapid.Permutation(steps).Draw(rt, "order")
}

// independentSteps генерирует шаги без зависимостей.
func independentSteps(rt *rapid.T) []domain.WorkflowStep {
	n := rapid.IntRange(0, 12).Draw(rt, "steps")
	steps := make([]domain.WorkflowStep, 0, n)
	for i := 0; i < n; i++ {
		steps = append(steps, step(fmt.Sprintf("s%d", i)))
	}
	return rapid.Permutation(steps).Draw(rt, "order")
}

func requireTopological(t require.TestingT, steps []domain.WorkflowStep) {
	pos := make(map[string]int, len(steps))
	for i, s := range steps {
		pos[s.ID] = i
	}
	for i, s := range steps {
		for _, dep := range s.DependsOn {
			require.Less(t, pos[dep], i, "step %s must follow %s", s.ID, dep)
		}
	}
}

func TestProperty_AcyclicDAGValidates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		require.NoError(rt, Validate(dagOf(acyclicSteps(rt)...), nil))
	})
}

func TestProperty_SortIsTopological(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		steps := acyclicSteps(rt)
		sorted := Sort(steps)

		require.Len(rt, sorted, len(steps))
		requireTopological(rt, sorted)
	})
}

func TestProperty_SortIsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		once := Sort(acyclicSteps(rt))
		require.Equal(rt, once, Sort(once))
	})
}

func TestProperty_SortIsStableWithoutDependencies(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		steps := independentSteps(rt)
		require.Equal(rt, ids(steps), ids(Sort(steps)))
	})
}

func TestProperty_SortDAGStaysValid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dag := dagOf(acyclicSteps(rt)...)
		require.NoError(rt, Validate(SortDAG(dag), nil))
	})
}

// toolCall генерирует произвольную операцию над существующими
// или несуществующими шагами.
func toolCall(rt *rapid.T, label string, known []string) domain.ToolCall {
	target := rapid.SampledFrom(append(known, "missing")).Draw(rt, label+"_target")
	deps := rapid.SliceOfN(rapid.SampledFrom(append(known, "missing")), 0, 2).Draw(rt, label+"_deps")

	switch rapid.IntRange(0, 3).Draw(rt, label+"_kind") {
	case 0:
		return &domain.AddStepArgs{
			Name:        label,
			Position:    rapid.SampledFrom([]domain.StepPosition{domain.PositionStart, domain.PositionEnd, domain.PositionAfter}).Draw(rt, label+"_pos"),
			AfterStepID: target,
		}
	case 1:
		return &domain.UpdateStepArgs{StepID: target, DependsOn: deps}
	case 2:
		return &domain.DeleteStepArgs{StepID: target}
	default:
		return &domain.ReorderStepsArgs{StepID: target, NewDependsOn: deps}
	}
}

func TestProperty_ApplyIsTransactional(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dag := dagOf(acyclicSteps(rt)...)
		before := dag.Clone()
		known := dag.StepIDs()

		n := rapid.IntRange(1, 5).Draw(rt, "calls")
		calls := make([]domain.ToolCall, 0, n)
		for i := 0; i < n; i++ {
			calls = append(calls, toolCall(rt, fmt.Sprintf("call%d", i), known))
		}

		result, err := ApplyToolCalls(ApplyParams{DAG: dag, ToolCalls: calls, IDGenerator: sequence()})

		// Вход не меняется ни при успехе, ни при ошибке
		require.Equal(rt, before, dag)

		if err != nil {
			require.Nil(rt, result)
			return
		}
		require.NoError(rt, Validate(result, nil))
		requireTopological(rt, Sort(result.Steps))
	})
}
