package engine

import "errors"

// Ошибки валидации DAG.
var (
	// ErrMissingSteps — у DAG нет списка шагов (пустой список допустим).
	ErrMissingSteps = errors.New("workflow has no steps list")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrMissingDependency — шаг зависит от несуществующего шага.
	ErrMissingDependency = errors.New("step depends on unknown step")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrUnknownTool — ссылка на инструмент, которого нет в каталоге.
	ErrUnknownTool = errors.New("unknown tool")
)

// Ошибки применения tool calls.
var (
	// ErrStepNotFound — целевой шаг операции не найден.
	ErrStepNotFound = errors.New("step not found")

	// ErrUnknownToolCall — операция не поддерживается движком.
	ErrUnknownToolCall = errors.New("unknown tool call")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	StepID  string // ID шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepID != "" {
		return "step " + e.StepID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stepID, field, message string, err error) *ValidationError {
	return &ValidationError{
		StepID:  stepID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// ModificationError — ошибка применения батча tool calls.
//
// Err — либо ErrStepNotFound, либо ErrUnknownToolCall,
// либо *ValidationError финальной проверки.
type ModificationError struct {
	StepID  string // ID шага, на котором остановился батч
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ModificationError) Error() string {
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ModificationError) Unwrap() error {
	return e.Err
}

func stepNotFound(stepID string) *ModificationError {
	return &ModificationError{
		StepID:  stepID,
		Message: "Step not found: " + stepID,
		Err:     ErrStepNotFound,
	}
}

func invalidResult(err error) *ModificationError {
	return &ModificationError{
		Message: "modified workflow is invalid: " + err.Error(),
		Err:     err,
	}
}
