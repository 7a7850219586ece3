package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/flowedit/internal/domain"
)

// Observer получает события применения tool calls.
// Реализуется telemetry.Metrics.
type Observer interface {
	ToolCallApplied(kind domain.ToolCallKind, err error)
	BatchFinished(calls int, err error)
}

// ApplyParams — параметры ApplyToolCalls.
type ApplyParams struct {
	// DAG — исходный граф. Не модифицируется.
	DAG *domain.WorkflowDAG

	// ToolCalls — батч операций, применяется строго по порядку.
	ToolCalls []domain.ToolCall

	// AvailableTools — каталог инструментов для разрешения ссылок
	// и финальной валидации.
	AvailableTools []domain.WorkflowToolRef

	// IDGenerator — генератор ID новых шагов. По умолчанию UUID.
	IDGenerator func() string

	// Logger — логгер. По умолчанию события не пишутся.
	Logger *slog.Logger

	// Observer — необязательный приёмник метрик.
	Observer Observer
}

// NewStepID генерирует ID шага (UUID v4).
func NewStepID() string {
	return uuid.NewString()
}

// ApplyToolCalls применяет батч tool calls к копии DAG.
//
// Каждая операция видит результат предыдущих. После применения всего
// батча результат проверяется Validate. Любая ошибка прерывает батч —
// частично изменённый DAG никогда не возвращается.
func ApplyToolCalls(p ApplyParams) (*domain.WorkflowDAG, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	result, err := applyToolCalls(p, logger)
	if p.Observer != nil {
		p.Observer.BatchFinished(len(p.ToolCalls), err)
	}
	if err != nil {
		logger.Warn("tool call batch rejected", "calls", len(p.ToolCalls), "error", err)
		return nil, err
	}

	logger.Debug("tool call batch applied", "calls", len(p.ToolCalls), "steps", len(result.Steps))
	return result, nil
}

func applyToolCalls(p ApplyParams, logger *slog.Logger) (*domain.WorkflowDAG, error) {
	if p.DAG == nil || p.DAG.Steps == nil {
		return nil, invalidResult(Validate(p.DAG, nil))
	}

	newID := p.IDGenerator
	if newID == nil {
		newID = NewStepID
	}

	w := newWorkingSet(p.DAG.Clone(), p.AvailableTools, newID)

	for i, call := range p.ToolCalls {
		stepID, err := w.apply(call)

		if p.Observer != nil {
			p.Observer.ToolCallApplied(kindOf(call), err)
		}
		if err != nil {
			logger.Debug("tool call failed", "index", i, "kind", kindOf(call), "error", err)
			return nil, err
		}

		logger.Debug("tool call applied", "index", i, "kind", kindOf(call), "step_id", stepID)
	}

	result := &domain.WorkflowDAG{Steps: w.steps}
	if err := Validate(result, p.AvailableTools); err != nil {
		return nil, invalidResult(err)
	}

	return result, nil
}

func kindOf(call domain.ToolCall) domain.ToolCallKind {
	if call == nil {
		return ""
	}
	return call.Kind()
}

// workingSet — изменяемая копия DAG на время одного батча.
//
// steps хранит порядок, index даёт поиск по ID за O(1).
// tempIDs живёт только в пределах батча.
type workingSet struct {
	steps   []domain.WorkflowStep
	index   map[string]int
	tempIDs map[string]string
	tools   []domain.WorkflowToolRef
	newID   func() string
}

func newWorkingSet(dag *domain.WorkflowDAG, tools []domain.WorkflowToolRef, newID func() string) *workingSet {
	w := &workingSet{
		steps:   dag.Steps,
		tempIDs: make(map[string]string),
		tools:   tools,
		newID:   newID,
	}
	w.reindex()
	return w
}

// reindex перестраивает индекс ID → позиция (первое вхождение).
func (w *workingSet) reindex() {
	w.index = make(map[string]int, len(w.steps))
	for i := range w.steps {
		if _, exists := w.index[w.steps[i].ID]; !exists {
			w.index[w.steps[i].ID] = i
		}
	}
}

// resolveStepID подменяет временный ID на реальный.
func (w *workingSet) resolveStepID(id string) string {
	if realID, ok := w.tempIDs[id]; ok {
		return realID
	}
	return id
}

// resolveStepIDs разрешает список ID. Всегда возвращает не-nil срез.
func (w *workingSet) resolveStepIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.resolveStepID(id))
	}
	return out
}

// lookup находит шаг по ID с учётом временных ID.
func (w *workingSet) lookup(id string) (*domain.WorkflowStep, error) {
	idx, ok := w.index[w.resolveStepID(id)]
	if !ok {
		return nil, stepNotFound(id)
	}
	return &w.steps[idx], nil
}

// apply применяет одну операцию и возвращает ID затронутого шага.
func (w *workingSet) apply(call domain.ToolCall) (string, error) {
	switch c := call.(type) {
	case *domain.AddStepArgs:
		if c != nil {
			return w.addStep(c), nil
		}
	case *domain.UpdateStepArgs:
		if c != nil {
			return c.StepID, w.updateStep(c)
		}
	case *domain.DeleteStepArgs:
		if c != nil {
			return c.StepID, w.deleteStep(c)
		}
	case *domain.ReorderStepsArgs:
		if c != nil {
			return c.StepID, w.reorderSteps(c)
		}
	}

	return "", &ModificationError{
		Message: fmt.Sprintf("unknown tool call: %T", call),
		Err:     ErrUnknownToolCall,
	}
}

func (w *workingSet) addStep(args *domain.AddStepArgs) string {
	id := w.newID()
	if args.TempID != "" {
		w.tempIDs[args.TempID] = id
	}

	var dependsOn []string
	switch {
	case args.DependsOn != nil:
		dependsOn = w.resolveStepIDs(args.DependsOn)
	case args.Position == domain.PositionStart:
		dependsOn = []string{}
	case args.Position == domain.PositionAfter:
		dependsOn = []string{}
		if args.AfterStepID != "" {
			dependsOn = append(dependsOn, w.resolveStepID(args.AfterStepID))
		}
	default:
		// "end" и позиция по умолчанию — после последнего шага в массиве
		dependsOn = []string{}
		if len(w.steps) > 0 {
			dependsOn = append(dependsOn, w.steps[len(w.steps)-1].ID)
		}
	}

	tools := resolveToolRefs(args.Tools, w.tools)
	if tools == nil {
		tools = []domain.WorkflowToolRef{}
	}

	w.steps = append(w.steps, domain.WorkflowStep{
		ID:          id,
		Name:        args.Name,
		Instruction: args.Instruction,
		Tools:       tools,
		DependsOn:   dependsOn,
	})
	if _, exists := w.index[id]; !exists {
		w.index[id] = len(w.steps) - 1
	}

	return id
}

func (w *workingSet) updateStep(args *domain.UpdateStepArgs) error {
	step, err := w.lookup(args.StepID)
	if err != nil {
		return err
	}

	if args.Name != nil {
		step.Name = *args.Name
	}
	if args.Instruction != nil {
		step.Instruction = *args.Instruction
	}

	// Порядок важен: замена, затем добавление, затем удаление
	if args.Tools != nil {
		step.Tools = resolveToolRefs(args.Tools, w.tools)
	}
	if args.AddTools != nil {
		step.Tools = append(step.Tools, resolveToolRefs(args.AddTools, w.tools)...)
	}
	if args.RemoveTools != nil {
		step.Tools = removeToolsByID(step.Tools, args.RemoveTools)
	}

	if args.DependsOn != nil {
		step.DependsOn = w.resolveStepIDs(args.DependsOn)
	}

	return nil
}

// removeToolsByID удаляет инструменты по ID. Версия не учитывается.
func removeToolsByID(tools, remove []domain.WorkflowToolRef) []domain.WorkflowToolRef {
	drop := make(map[string]bool, len(remove))
	for _, ref := range remove {
		drop[ref.ID] = true
	}

	out := make([]domain.WorkflowToolRef, 0, len(tools))
	for _, ref := range tools {
		if !drop[ref.ID] {
			out = append(out, ref)
		}
	}
	return out
}

func (w *workingSet) deleteStep(args *domain.DeleteStepArgs) error {
	target, err := w.lookup(args.StepID)
	if err != nil {
		return err
	}
	deleted := target.Clone()

	// На что заменить ссылку на удалённый шаг
	var replacement []string
	if args.RewireStrategy == domain.RewireManual && args.RewireToStepID != "" {
		replacement = []string{w.resolveStepID(args.RewireToStepID)}
	} else {
		replacement = deleted.DependsOn
	}

	remaining := make([]domain.WorkflowStep, 0, len(w.steps))
	for i := range w.steps {
		if i == w.index[deleted.ID] {
			continue
		}
		step := w.steps[i]
		if containsID(step.DependsOn, deleted.ID) {
			step.DependsOn = rewire(step.DependsOn, deleted.ID, replacement)
		}
		remaining = append(remaining, step)
	}

	w.steps = remaining
	w.reindex()
	return nil
}

// rewire заменяет removed на replacement, убирая дубликаты
// и сохраняя порядок первого вхождения.
func rewire(deps []string, removed string, replacement []string) []string {
	seen := make(map[string]bool, len(deps)+len(replacement))
	out := make([]string, 0, len(deps)+len(replacement))

	add := func(id string) {
		if id == removed || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, dep := range deps {
		if dep != removed {
			add(dep)
			continue
		}
		for _, r := range replacement {
			add(r)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (w *workingSet) reorderSteps(args *domain.ReorderStepsArgs) error {
	step, err := w.lookup(args.StepID)
	if err != nil {
		return err
	}

	// Валидация откладывается до конца батча
	step.DependsOn = w.resolveStepIDs(args.NewDependsOn)
	return nil
}
