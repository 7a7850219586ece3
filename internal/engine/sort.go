package engine

import (
	"container/heap"

	"github.com/shaiso/flowedit/internal/domain"
)

// SortReport — результат топологической сортировки.
type SortReport struct {
	// Steps — шаги в порядке выполнения.
	Steps []domain.WorkflowStep

	// Unsorted — ID шагов, которые не удалось упорядочить (цикл).
	// Они добавлены в конец Steps в исходном порядке.
	Unsorted []string
}

// Complete возвращает true, если все шаги упорядочены топологически.
func (r SortReport) Complete() bool {
	return len(r.Unsorted) == 0
}

// indexHeap — min-heap индексов шагов в исходном массиве.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Sort возвращает шаги в топологическом порядке.
// При равенстве выигрывает шаг с меньшим исходным индексом.
func Sort(steps []domain.WorkflowStep) []domain.WorkflowStep {
	return SortWithReport(steps).Steps
}

// SortWithReport выполняет топологическую сортировку (алгоритм Кана).
//
// Учитываются только зависимости на существующие шаги — висячие
// зависимости игнорируются, их отлавливает Validate. Если в графе есть
// цикл, неупорядоченные шаги добавляются в конец в исходном порядке:
// сортировка используется для отображения и не падает на невалидном входе.
func SortWithReport(steps []domain.WorkflowStep) SortReport {
	if steps == nil {
		return SortReport{}
	}

	// ID → индекс первого вхождения
	index := make(map[string]int, len(steps))
	for i := range steps {
		if _, exists := index[steps[i].ID]; !exists {
			index[steps[i].ID] = i
		}
	}

	inDegree := make([]int, len(steps))
	dependents := make([][]int, len(steps))
	for i := range steps {
		for _, dep := range steps[i].DependsOn {
			depIdx, ok := index[dep]
			if !ok {
				continue
			}
			inDegree[i]++
			dependents[depIdx] = append(dependents[depIdx], i)
		}
	}

	// Очередь готовых шагов, упорядоченная по исходному индексу
	ready := &indexHeap{}
	for i := range steps {
		if inDegree[i] == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	placed := make([]bool, len(steps))
	order := make([]domain.WorkflowStep, 0, len(steps))

	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		placed[i] = true
		order = append(order, steps[i].Clone())

		for _, dependent := range dependents[i] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	report := SortReport{Steps: order}

	// Остались шаги — есть цикл
	if len(order) != len(steps) {
		for i := range steps {
			if placed[i] {
				continue
			}
			report.Steps = append(report.Steps, steps[i].Clone())
			report.Unsorted = append(report.Unsorted, steps[i].ID)
		}
	}

	return report
}

// SortDAG возвращает копию DAG с шагами в топологическом порядке.
func SortDAG(dag *domain.WorkflowDAG) *domain.WorkflowDAG {
	if dag == nil {
		return nil
	}
	return &domain.WorkflowDAG{Steps: Sort(dag.Steps)}
}
