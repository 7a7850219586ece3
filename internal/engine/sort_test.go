package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/flowedit/internal/domain"
)

func ids(steps []domain.WorkflowStep) []string {
	out := make([]string, len(steps))
	for i := range steps {
		out[i] = steps[i].ID
	}
	return out
}

func TestSort_NoDependenciesKeepsOrder(t *testing.T) {
	steps := []domain.WorkflowStep{step("c"), step("a"), step("b")}
	assert.Equal(t, []string{"c", "a", "b"}, ids(Sort(steps)))
}

func TestSort_ReversedChain(t *testing.T) {
	steps := []domain.WorkflowStep{step("c", "b"), step("b", "a"), step("a")}
	assert.Equal(t, []string{"a", "b", "c"}, ids(Sort(steps)))
}

func TestSort_DiamondTieBreakByIndex(t *testing.T) {
	// A → B → D
	// A → C → D
	steps := []domain.WorkflowStep{
		step("D", "B", "C"),
		step("C", "A"),
		step("B", "A"),
		step("A"),
	}

	// C раньше B: у C меньший исходный индекс
	assert.Equal(t, []string{"A", "C", "B", "D"}, ids(Sort(steps)))
}

func TestSort_ReadyQueueKeepsIndexOrder(t *testing.T) {
	// x освобождается позже y, но стоит раньше в массиве
	steps := []domain.WorkflowStep{
		step("root"),
		step("x", "mid"),
		step("mid", "root"),
		step("y", "root"),
	}

	assert.Equal(t, []string{"root", "mid", "x", "y"}, ids(Sort(steps)))
}

func TestSort_IgnoresDanglingDependencies(t *testing.T) {
	steps := []domain.WorkflowStep{step("b", "a", "ghost"), step("a")}
	assert.Equal(t, []string{"a", "b"}, ids(Sort(steps)))
}

func TestSort_CycleFallback(t *testing.T) {
	steps := []domain.WorkflowStep{
		step("x"),
		step("a", "b"),
		step("b", "a"),
		step("c", "x"),
	}

	report := SortWithReport(steps)
	assert.False(t, report.Complete())
	assert.Equal(t, []string{"x", "c", "a", "b"}, ids(report.Steps))
	assert.Equal(t, []string{"a", "b"}, report.Unsorted)
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	steps := []domain.WorkflowStep{step("b", "a"), step("a")}
	before := dagOf(steps...).Clone()

	sorted := Sort(steps)
	sorted[0].DependsOn = append(sorted[0].DependsOn, "mutated")
	sorted[1].DependsOn[0] = "mutated"

	assert.Equal(t, before.Steps, steps)
}

func TestSort_NilAndEmpty(t *testing.T) {
	assert.Nil(t, Sort(nil))
	assert.Empty(t, Sort([]domain.WorkflowStep{}))
	assert.Nil(t, SortDAG(nil))
}

func TestSortDAG_StaysValid(t *testing.T) {
	dag := dagOf(step("d", "b", "c"), step("b", "a"), step("c", "a"), step("a"))
	require.NoError(t, Validate(dag, nil))

	sorted := SortDAG(dag)
	require.NoError(t, Validate(sorted, nil))
	assert.Equal(t, []string{"a", "b", "c", "d"}, sorted.StepIDs())

	// Исходный DAG не изменился
	assert.Equal(t, []string{"d", "b", "c", "a"}, dag.StepIDs())
}
