package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCallList_UnmarshalJSON(t *testing.T) {
	data := []byte(`[
		{"name": "add_step", "args": {"name": "Fetch", "instruction": "fetch it", "position": "start", "tempId": "t1",
			"tools": [{"id": "http", "version": "2"}]}},
		{"name": "update_step", "args": {"stepId": "t1", "instruction": "fetch again", "removeTools": [{"id": "http"}]}},
		{"name": "delete_step", "args": {"stepId": "old", "rewireStrategy": "manual", "rewireToStepId": "t1"}},
		{"name": "reorder_steps", "args": {"stepId": "last", "newDependsOn": ["t1"]}}
	]`)

	var calls ToolCallList
	require.NoError(t, json.Unmarshal(data, &calls))
	require.Len(t, calls, 4)

	add, ok := calls[0].(*AddStepArgs)
	require.True(t, ok)
	assert.Equal(t, "Fetch", add.Name)
	assert.Equal(t, PositionStart, add.Position)
	assert.Equal(t, "t1", add.TempID)
	assert.Nil(t, add.DependsOn)
	assert.Equal(t, []WorkflowToolRef{{ID: "http", Version: "2"}}, add.Tools)

	update, ok := calls[1].(*UpdateStepArgs)
	require.True(t, ok)
	assert.Nil(t, update.Name)
	require.NotNil(t, update.Instruction)
	assert.Equal(t, "fetch again", *update.Instruction)
	assert.Nil(t, update.Tools)
	assert.Equal(t, []WorkflowToolRef{{ID: "http"}}, update.RemoveTools)

	del, ok := calls[2].(*DeleteStepArgs)
	require.True(t, ok)
	assert.Equal(t, RewireManual, del.RewireStrategy)
	assert.Equal(t, "t1", del.RewireToStepID)

	reorder, ok := calls[3].(*ReorderStepsArgs)
	require.True(t, ok)
	assert.Equal(t, ToolCallReorderSteps, reorder.Kind())
	assert.Equal(t, []string{"t1"}, reorder.NewDependsOn)
}

func TestToolCallList_EmptyListsAreKept(t *testing.T) {
	var calls ToolCallList
	require.NoError(t, json.Unmarshal([]byte(`[
		{"name": "add_step", "args": {"name": "x", "dependsOn": []}},
		{"name": "update_step", "args": {"stepId": "x", "tools": []}}
	]`), &calls))

	// Пустой список — явное значение, отсутствие — "не задано"
	assert.NotNil(t, calls[0].(*AddStepArgs).DependsOn)
	assert.NotNil(t, calls[1].(*UpdateStepArgs).Tools)
	assert.Nil(t, calls[1].(*UpdateStepArgs).DependsOn)
}

func TestToolCallList_StringArguments(t *testing.T) {
	var calls ToolCallList
	data := []byte(`[{"name": "delete_step", "arguments": "{\"stepId\": \"b\"}"}]`)
	require.NoError(t, json.Unmarshal(data, &calls))

	require.Len(t, calls, 1)
	assert.Equal(t, &DeleteStepArgs{StepID: "b"}, calls[0])
}

func TestToolCallList_UnknownKind(t *testing.T) {
	var calls ToolCallList
	err := json.Unmarshal([]byte(`[{"name": "rename_workflow", "args": {}}]`), &calls)
	require.ErrorIs(t, err, ErrUnknownToolCallKind)
	assert.Contains(t, err.Error(), "tool call 0")
}

func TestToolCallList_MarshalJSON(t *testing.T) {
	calls := ToolCallList{
		&AddStepArgs{Name: "x", DependsOn: []string{}},
		&DeleteStepArgs{StepID: "y"},
	}

	data, err := json.Marshal(calls)
	require.NoError(t, err)

	var decoded ToolCallList
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, calls, decoded)
}

func TestDecodeToolCall_EmptyArgs(t *testing.T) {
	call, err := DecodeToolCall(ToolCallReorderSteps, nil)
	require.NoError(t, err)
	assert.Equal(t, &ReorderStepsArgs{}, call)
}
