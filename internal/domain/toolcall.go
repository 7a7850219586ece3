package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ToolCallKind — тип операции редактирования DAG.
type ToolCallKind string

const (
	// ToolCallAddStep — добавление шага.
	ToolCallAddStep ToolCallKind = "add_step"

	// ToolCallUpdateStep — частичное обновление шага.
	ToolCallUpdateStep ToolCallKind = "update_step"

	// ToolCallDeleteStep — удаление шага с перепривязкой зависимых.
	ToolCallDeleteStep ToolCallKind = "delete_step"

	// ToolCallReorderSteps — замена зависимостей шага.
	ToolCallReorderSteps ToolCallKind = "reorder_steps"
)

// ErrUnknownToolCallKind — неизвестный тип tool call при декодировании.
var ErrUnknownToolCallKind = errors.New("unknown tool call kind")

// ToolCall — операция редактирования DAG.
//
// Закрытое объединение: реализуют только *AddStepArgs, *UpdateStepArgs,
// *DeleteStepArgs и *ReorderStepsArgs.
type ToolCall interface {
	Kind() ToolCallKind
	isToolCall()
}

// StepPosition — куда вставить новый шаг, если зависимости не заданы явно.
type StepPosition string

const (
	PositionStart StepPosition = "start"
	PositionEnd   StepPosition = "end"
	PositionAfter StepPosition = "after"
)

// RewireStrategy — как перепривязать шаги, зависевшие от удалённого.
type RewireStrategy string

const (
	// RewireAuto — зависимые наследуют зависимости удалённого шага.
	RewireAuto RewireStrategy = "auto"

	// RewireManual — зависимые переключаются на RewireToStepID.
	RewireManual RewireStrategy = "manual"
)

// AddStepArgs — аргументы add_step.
type AddStepArgs struct {
	Name        string            `json:"name"`
	Instruction string            `json:"instruction"`
	Tools       []WorkflowToolRef `json:"tools,omitempty"`

	// DependsOn — явные зависимости. Nil — не заданы, тогда
	// зависимости выводятся из Position.
	DependsOn []string `json:"dependsOn"`

	Position    StepPosition `json:"position,omitempty"`
	AfterStepID string       `json:"afterStepId,omitempty"`

	// TempID — временный ID, по которому последующие вызовы
	// того же батча могут сослаться на этот шаг.
	TempID string `json:"tempId,omitempty"`
}

// UpdateStepArgs — аргументы update_step.
//
// Nil-поля означают "не менять".
type UpdateStepArgs struct {
	StepID      string            `json:"stepId"`
	Name        *string           `json:"name,omitempty"`
	Instruction *string           `json:"instruction,omitempty"`
	Tools       []WorkflowToolRef `json:"tools"`
	AddTools    []WorkflowToolRef `json:"addTools"`
	RemoveTools []WorkflowToolRef `json:"removeTools"`
	DependsOn   []string          `json:"dependsOn"`
}

// DeleteStepArgs — аргументы delete_step.
type DeleteStepArgs struct {
	StepID         string         `json:"stepId"`
	RewireStrategy RewireStrategy `json:"rewireStrategy,omitempty"`
	RewireToStepID string         `json:"rewireToStepId,omitempty"`
}

// ReorderStepsArgs — аргументы reorder_steps.
type ReorderStepsArgs struct {
	StepID       string   `json:"stepId"`
	NewDependsOn []string `json:"newDependsOn"`
}

func (*AddStepArgs) Kind() ToolCallKind      { return ToolCallAddStep }
func (*UpdateStepArgs) Kind() ToolCallKind   { return ToolCallUpdateStep }
func (*DeleteStepArgs) Kind() ToolCallKind   { return ToolCallDeleteStep }
func (*ReorderStepsArgs) Kind() ToolCallKind { return ToolCallReorderSteps }

func (*AddStepArgs) isToolCall()      {}
func (*UpdateStepArgs) isToolCall()   {}
func (*DeleteStepArgs) isToolCall()   {}
func (*ReorderStepsArgs) isToolCall() {}

// toolCallEnvelope — формат tool call на проводе.
//
// Arguments поддерживается для совместимости с function calling API,
// где аргументы приходят JSON-строкой.
type toolCallEnvelope struct {
	Name      ToolCallKind    `json:"name"`
	Args      json.RawMessage `json:"args,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// DecodeToolCall декодирует аргументы операции kind.
func DecodeToolCall(kind ToolCallKind, args []byte) (ToolCall, error) {
	var call ToolCall
	switch kind {
	case ToolCallAddStep:
		call = &AddStepArgs{}
	case ToolCallUpdateStep:
		call = &UpdateStepArgs{}
	case ToolCallDeleteStep:
		call = &DeleteStepArgs{}
	case ToolCallReorderSteps:
		call = &ReorderStepsArgs{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownToolCallKind, kind)
	}

	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		return call, nil
	}

	if err := json.Unmarshal(args, call); err != nil {
		return nil, fmt.Errorf("decode %s args: %w", kind, err)
	}
	return call, nil
}

// ToolCallList — батч tool calls с JSON-кодеком.
type ToolCallList []ToolCall

// UnmarshalJSON декодирует массив {"name": ..., "args": {...}}.
func (l *ToolCallList) UnmarshalJSON(data []byte) error {
	var envelopes []toolCallEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	calls := make(ToolCallList, 0, len(envelopes))
	for i, env := range envelopes {
		args := env.Args
		if len(args) == 0 && len(env.Arguments) > 0 {
			args = env.Arguments
			// Аргументы в виде строки: "{\"stepId\": \"a\"}"
			var encoded string
			if err := json.Unmarshal(args, &encoded); err == nil {
				args = []byte(encoded)
			}
		}

		call, err := DecodeToolCall(env.Name, args)
		if err != nil {
			return fmt.Errorf("tool call %d: %w", i, err)
		}
		calls = append(calls, call)
	}

	*l = calls
	return nil
}

// MarshalJSON кодирует батч в формат {"name": ..., "args": {...}}.
func (l ToolCallList) MarshalJSON() ([]byte, error) {
	envelopes := make([]toolCallEnvelope, 0, len(l))
	for i, call := range l {
		if call == nil {
			return nil, fmt.Errorf("tool call %d is nil", i)
		}
		args, err := json.Marshal(call)
		if err != nil {
			return nil, fmt.Errorf("encode tool call %d: %w", i, err)
		}
		envelopes = append(envelopes, toolCallEnvelope{Name: call.Kind(), Args: args})
	}
	return json.Marshal(envelopes)
}
