package domain

// WorkflowDAG — граф шагов workflow.
//
// DAG — неизменяемое значение: движок никогда не модифицирует
// переданный граф, а возвращает новый. Порядок Steps значим —
// он используется как tie-breaker при топологической сортировке.
type WorkflowDAG struct {
	// Steps — шаги в порядке их объявления.
	Steps []WorkflowStep `json:"steps"`
}

// WorkflowStep — шаг workflow.
type WorkflowStep struct {
	// ID — уникальный идентификатор шага в рамках DAG.
	ID string `json:"id"`

	// Name — человекочитаемое имя шага.
	Name string `json:"name"`

	// Instruction — промпт, который выполняет шаг.
	Instruction string `json:"instruction"`

	// Tools — инструменты, доступные шагу.
	Tools []WorkflowToolRef `json:"tools"`

	// DependsOn — ID шагов, которые должны выполниться раньше.
	DependsOn []string `json:"dependsOn"`
}

// WorkflowToolRef — ссылка на инструмент.
//
// Идентичность — пара (ID, Version). Пустая Version — wildcard:
// совпадает с любой зарегистрированной версией инструмента с тем же ID.
type WorkflowToolRef struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// Matches проверяет, ссылаются ли две ссылки на один инструмент
// с учётом wildcard-версии.
func (r WorkflowToolRef) Matches(other WorkflowToolRef) bool {
	if r.ID != other.ID {
		return false
	}
	return r.Version == "" || other.Version == "" || r.Version == other.Version
}

// Key возвращает строковое представление идентичности ссылки: id или id@version.
func (r WorkflowToolRef) Key() string {
	if r.Version == "" {
		return r.ID
	}
	return r.ID + "@" + r.Version
}

// Clone возвращает глубокую копию шага.
func (s WorkflowStep) Clone() WorkflowStep {
	out := s
	if s.Tools != nil {
		out.Tools = make([]WorkflowToolRef, len(s.Tools))
		copy(out.Tools, s.Tools)
	}
	if s.DependsOn != nil {
		out.DependsOn = make([]string, len(s.DependsOn))
		copy(out.DependsOn, s.DependsOn)
	}
	return out
}

// Clone возвращает глубокую копию DAG.
// Nil-срез шагов остаётся nil.
func (d *WorkflowDAG) Clone() *WorkflowDAG {
	if d == nil {
		return nil
	}
	out := &WorkflowDAG{}
	if d.Steps != nil {
		out.Steps = make([]WorkflowStep, len(d.Steps))
		for i := range d.Steps {
			out.Steps[i] = d.Steps[i].Clone()
		}
	}
	return out
}

// StepIDs возвращает ID шагов в порядке объявления.
func (d *WorkflowDAG) StepIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, len(d.Steps))
	for i := range d.Steps {
		ids[i] = d.Steps[i].ID
	}
	return ids
}
