package engine

import (
	"fmt"
	"strings"

	"github.com/shaiso/flowedit/internal/domain"
)

// Validate выполняет полную валидацию DAG.
//
// Проверяет (в этом порядке):
// - Наличие списка шагов (пустой список допустим)
// - Уникальность ID шагов (сообщаются все дубликаты)
// - Валидность зависимостей (сообщается первая отсутствующая)
// - Отсутствие циклов
// - Разрешимость инструментов, если validTools не пуст
//
// Функция чистая: DAG не модифицируется.
func Validate(dag *domain.WorkflowDAG, validTools []domain.WorkflowToolRef) error {
	if dag == nil || dag.Steps == nil {
		return NewValidationError("", "steps", "workflow has no steps list", ErrMissingSteps)
	}

	if err := validateUniqueIDs(dag.Steps); err != nil {
		return err
	}

	if err := validateDependencies(dag.Steps); err != nil {
		return err
	}

	if err := validateAcyclic(dag.Steps); err != nil {
		return err
	}

	if len(validTools) > 0 {
		if err := validateTools(dag.Steps, validTools); err != nil {
			return err
		}
	}

	return nil
}

// validateUniqueIDs собирает все повторяющиеся ID.
func validateUniqueIDs(steps []domain.WorkflowStep) error {
	seen := make(map[string]int, len(steps))
	var duplicates []string

	for i := range steps {
		id := steps[i].ID
		seen[id]++
		// Каждый дубликат сообщаем один раз
		if seen[id] == 2 {
			duplicates = append(duplicates, id)
		}
	}

	if len(duplicates) == 0 {
		return nil
	}

	return NewValidationError("", "id",
		fmt.Sprintf("duplicate step IDs: %s", strings.Join(duplicates, ", ")), ErrDuplicateStepID)
}

// validateDependencies проверяет, что все dependsOn ссылаются на существующие шаги.
func validateDependencies(steps []domain.WorkflowStep) error {
	stepIDs := make(map[string]bool, len(steps))
	for i := range steps {
		stepIDs[steps[i].ID] = true
	}

	for i := range steps {
		step := &steps[i]

		for _, dep := range step.DependsOn {
			if !stepIDs[dep] {
				return NewValidationError(step.ID, "dependsOn",
					fmt.Sprintf("depends on unknown step: %s", dep), ErrMissingDependency)
			}
		}
	}

	return nil
}

// validateAcyclic ищет цикл обходом в глубину.
//
// Повторный заход в узел, который ещё в обработке (visiting),
// означает обратное ребро, то есть цикл.
func validateAcyclic(steps []domain.WorkflowStep) error {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	byID := make(map[string]*domain.WorkflowStep, len(steps))
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
	}

	state := make(map[string]int, len(steps))
	var path []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		path = append(path, id)

		for _, dep := range byID[id].DependsOn {
			if _, ok := byID[dep]; !ok {
				continue
			}
			switch state[dep] {
			case visiting:
				cycle = cyclePath(path, dep)
				return true
			case unvisited:
				if dfs(dep) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		state[id] = visited
		return false
	}

	for i := range steps {
		id := steps[i].ID
		if state[id] != unvisited {
			continue
		}
		if dfs(id) {
			return NewValidationError(id, "dependsOn",
				fmt.Sprintf("cyclic dependency detected: %s", strings.Join(cycle, " -> ")), ErrCyclicDependency)
		}
	}

	return nil
}

// cyclePath вырезает из пути обхода цикл, замкнутый на start.
// Рёбра обходятся от шага к его зависимости, поэтому путь разворачивается
// в порядке выполнения: зависимость -> зависимый.
func cyclePath(path []string, start string) []string {
	from := 0
	for i, id := range path {
		if id == start {
			from = i
			break
		}
	}

	loop := path[from:]
	out := make([]string, 0, len(loop)+1)
	for i := len(loop) - 1; i >= 0; i-- {
		out = append(out, loop[i])
	}
	return append(out, out[0])
}

// validateTools проверяет, что каждая ссылка на инструмент есть в каталоге.
func validateTools(steps []domain.WorkflowStep, validTools []domain.WorkflowToolRef) error {
	for i := range steps {
		step := &steps[i]

		for _, ref := range step.Tools {
			if !toolKnown(ref, validTools) {
				return NewValidationError(step.ID, "tools",
					fmt.Sprintf("unknown tool: %s", ref.Key()), ErrUnknownTool)
			}
		}
	}

	return nil
}
