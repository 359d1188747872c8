package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// ChatClient is an implementation of the core.ChatClient interface using the
// OpenAI chat completions API. It also serves Azure OpenAI deployments; the
// factory decides which client configuration to build.
type ChatClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewChatClient creates a new OpenAI chat client
func NewChatClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *ChatClient {
	return &ChatClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// CompleteChat issues one chat completion over the full conversation history
func (c *ChatClient) CompleteChat(ctx context.Context, history []core.Message, opts core.ChatOptions) (*core.ChatResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:             c.modelName,
		Messages:          toRequestMessages(history),
		Tools:             toRequestTools(opts.Tools),
		ToolChoice:        "auto",
		ParallelToolCalls: false,
		MaxTokens:         c.maxTokens,
		Temperature:       c.temperature,
		TopP:              c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   opts.ResultFormat.Name,
				Schema: opts.ResultFormat.Schema,
				Strict: true,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from chat completion")
	}

	choice := resp.Choices[0]
	out := &core.ChatResponse{
		FinishSignal: toFinishSignal(choice.FinishReason),
		Content:      choice.Message.Content,
		Model:        resp.Model,
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}
	return out, nil
}

// toRequestMessages converts engine history into chat completion messages
func toRequestMessages(history []core.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msg := openai.ChatCompletionMessage{Content: m.Content}
		switch m.Role {
		case core.RoleSystem:
			msg.Role = openai.ChatMessageRoleSystem
		case core.RoleUser:
			msg.Role = openai.ChatMessageRoleUser
		case core.RoleAssistant:
			msg.Role = openai.ChatMessageRoleAssistant
			for _, call := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
		case core.RoleTool:
			msg.Role = openai.ChatMessageRoleTool
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.ToolName
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// toRequestTools converts tool descriptors into function definitions
func toRequestTools(defs []core.ToolDefinition) []openai.Tool {
	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return tools
}

// toFinishSignal maps the provider finish reason onto the engine's enum
func toFinishSignal(reason openai.FinishReason) core.FinishSignal {
	switch reason {
	case openai.FinishReasonStop:
		return core.FinishCompleted
	case openai.FinishReasonToolCalls:
		return core.FinishToolCalls
	default:
		return core.FinishOther
	}
}
