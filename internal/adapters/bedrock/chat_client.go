package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// ChatClient is an implementation of the core.ChatClient interface using the
// Amazon Bedrock Converse API. Converse has no strict response-format
// option, so the result schema is appended to the system text and the engine
// validates the terminal answer downstream.
type ChatClient struct {
	client      *bedrockruntime.Client
	modelID     string
	maxTokens   int32
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewChatClient creates a new Bedrock chat client
func NewChatClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int32,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *ChatClient {
	return &ChatClient{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// CompleteChat issues one Converse call over the full conversation history
func (c *ChatClient) CompleteChat(ctx context.Context, history []core.Message, opts core.ChatOptions) (*core.ChatResponse, error) {
	system, messages, err := toConverseMessages(history, opts.ResultFormat)
	if err != nil {
		return nil, err
	}
	toolConfig, err := toToolConfig(opts.Tools)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:    aws.String(c.modelID),
		System:     system,
		Messages:   messages,
		ToolConfig: toolConfig,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.maxTokens),
			Temperature: aws.Float32(c.temperature),
			TopP:        aws.Float32(c.topP),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to converse with Bedrock model: %w", err)
	}

	outMsg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected Converse output type %T", resp.Output)
	}

	out := &core.ChatResponse{
		FinishSignal: toFinishSignal(resp.StopReason),
		Model:        c.modelID,
	}
	for _, block := range outMsg.Value.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			out.Content += b.Value
		case *types.ContentBlockMemberToolUse:
			args, err := b.Value.Input.MarshalSmithyDocument()
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:        aws.ToString(b.Value.ToolUseId),
				Name:      aws.ToString(b.Value.Name),
				Arguments: args,
			})
		}
	}
	return out, nil
}

// toConverseMessages converts engine history into Converse system blocks and
// messages. Tool results travel as user messages carrying tool-result blocks.
func toConverseMessages(history []core.Message, format core.ResultFormat) ([]types.SystemContentBlock, []types.Message, error) {
	var system []types.SystemContentBlock
	var messages []types.Message

	for _, m := range history {
		switch m.Role {
		case core.RoleSystem:
			text := fmt.Sprintf("%s\n\nYour final answer must be a single JSON object conforming to this JSON schema:\n%s",
				m.Content, string(format.Schema))
			system = append(system, &types.SystemContentBlockMemberText{Value: text})

		case core.RoleUser:
			messages = append(messages, types.Message{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
			})

		case core.RoleAssistant:
			var content []types.ContentBlock
			if m.Content != "" {
				content = append(content, &types.ContentBlockMemberText{Value: m.Content})
			}
			for _, call := range m.ToolCalls {
				var input map[string]any
				if err := json.Unmarshal(call.Arguments, &input); err != nil {
					return nil, nil, fmt.Errorf("failed to rebuild tool input: %w", err)
				}
				content = append(content, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{
						ToolUseId: aws.String(call.ID),
						Name:      aws.String(call.Name),
						Input:     document.NewLazyDocument(input),
					},
				})
			}
			messages = append(messages, types.Message{
				Role:    types.ConversationRoleAssistant,
				Content: content,
			})

		case core.RoleTool:
			messages = append(messages, types.Message{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberToolResult{
					Value: types.ToolResultBlock{
						ToolUseId: aws.String(m.ToolCallID),
						Content: []types.ToolResultContentBlock{
							&types.ToolResultContentBlockMemberText{Value: m.Content},
						},
					},
				}},
			})
		}
	}
	return system, messages, nil
}

// toToolConfig converts tool descriptors into a Converse tool configuration
func toToolConfig(defs []core.ToolDefinition) (*types.ToolConfiguration, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	cfg := &types.ToolConfiguration{
		ToolChoice: &types.ToolChoiceMemberAuto{Value: types.AutoToolChoice{}},
	}
	for _, def := range defs {
		var schemaDoc map[string]any
		if err := json.Unmarshal(def.Parameters, &schemaDoc); err != nil {
			return nil, fmt.Errorf("failed to parse tool schema for %q: %w", def.Name, err)
		}
		cfg.Tools = append(cfg.Tools, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(def.Name),
				Description: aws.String(def.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(schemaDoc),
				},
			},
		})
	}
	return cfg, nil
}

// toFinishSignal maps the Converse stop reason onto the engine's enum
func toFinishSignal(reason types.StopReason) core.FinishSignal {
	switch reason {
	case types.StopReasonEndTurn:
		return core.FinishCompleted
	case types.StopReasonToolUse:
		return core.FinishToolCalls
	default:
		return core.FinishOther
	}
}
