package openai

import (
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

func TestToRequestMessagesMapsRoles(t *testing.T) {
	history := []core.Message{
		{Role: core.RoleSystem, Content: "you are a detector"},
		{Role: core.RoleUser, Content: "analyze this"},
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{
			{ID: "call_1", Name: "checkUrl", Arguments: json.RawMessage(`{"url":"http://example.com"}`)},
		}},
		{Role: core.RoleTool, Content: "URL is safe", ToolCallID: "call_1", ToolName: "checkUrl"},
	}

	msgs := toRequestMessages(history)
	require.Len(t, msgs, 4)

	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, "you are a detector", msgs[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)

	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, "call_1", msgs[2].ToolCalls[0].ID)
	assert.Equal(t, openai.ToolTypeFunction, msgs[2].ToolCalls[0].Type)
	assert.Equal(t, "checkUrl", msgs[2].ToolCalls[0].Function.Name)
	assert.Equal(t, `{"url":"http://example.com"}`, msgs[2].ToolCalls[0].Function.Arguments)

	assert.Equal(t, openai.ChatMessageRoleTool, msgs[3].Role)
	assert.Equal(t, "call_1", msgs[3].ToolCallID)
	assert.Equal(t, "checkUrl", msgs[3].Name)
	assert.Equal(t, "URL is safe", msgs[3].Content)
}

func TestToRequestToolsMapsDefinitions(t *testing.T) {
	params := json.RawMessage(`{"type":"object","properties":{"url":{"type":"string"}}}`)
	tools := toRequestTools([]core.ToolDefinition{
		{Name: "checkUrl", Description: "Check a URL", Parameters: params},
	})

	require.Len(t, tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "checkUrl", tools[0].Function.Name)
	assert.Equal(t, "Check a URL", tools[0].Function.Description)
	assert.Equal(t, params, tools[0].Function.Parameters)
}

func TestToFinishSignal(t *testing.T) {
	assert.Equal(t, core.FinishCompleted, toFinishSignal(openai.FinishReasonStop))
	assert.Equal(t, core.FinishToolCalls, toFinishSignal(openai.FinishReasonToolCalls))
	assert.Equal(t, core.FinishOther, toFinishSignal(openai.FinishReasonLength))
	assert.Equal(t, core.FinishOther, toFinishSignal(openai.FinishReasonContentFilter))
}
