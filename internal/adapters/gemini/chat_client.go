package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// ChatClient is an implementation of the core.ChatClient interface using
// Google Gemini. Gemini addresses function results by name and does not
// assign call identifiers, so identifiers are synthesized on the way out and
// results are returned as function responses keyed by tool name.
type ChatClient struct {
	client      *genai.Client
	modelName   string
	maxTokens   int32
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewChatClient creates a new Gemini chat client
func NewChatClient(
	client *genai.Client,
	modelName string,
	maxTokens int32,
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

// Close closes the underlying Gemini client
func (c *ChatClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// CompleteChat issues one generation over the full conversation history.
// A fresh model handle is built per call so concurrent runs never share
// mutable generation state.
func (c *ChatClient) CompleteChat(ctx context.Context, history []core.Message, opts core.ChatOptions) (*core.ChatResponse, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetMaxOutputTokens(c.maxTokens)
	model.SetTemperature(c.temperature)
	model.SetTopP(c.topP)

	tools, err := toGeminiTools(opts.Tools)
	if err != nil {
		return nil, err
	}
	model.Tools = tools
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
	}

	contents, system, err := toGeminiContents(history)
	if err != nil {
		return nil, err
	}
	if system != "" {
		// The result schema rides along in the system instruction; Gemini
		// rejects responseSchema combined with tools.
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(
			fmt.Sprintf("%s\n\nYour final answer must be a single JSON object conforming to this JSON schema:\n%s",
				system, string(opts.ResultFormat.Schema)),
		)}}
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("conversation history contains no sendable messages")
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	resp, err := session.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	candidate := resp.Candidates[0]
	out := &core.ChatResponse{Model: c.modelName}
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Content += string(p)
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal function call args: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:        uuid.NewString(),
				Name:      p.Name,
				Arguments: args,
			})
		}
	}

	switch {
	case len(out.ToolCalls) > 0:
		out.FinishSignal = core.FinishToolCalls
	case candidate.FinishReason == genai.FinishReasonStop:
		out.FinishSignal = core.FinishCompleted
	default:
		out.FinishSignal = core.FinishOther
	}
	return out, nil
}

// toGeminiContents converts engine history into Gemini contents, pulling the
// system message out for the system instruction
func toGeminiContents(history []core.Message) ([]*genai.Content, string, error) {
	var contents []*genai.Content
	var system string

	for _, m := range history {
		switch m.Role {
		case core.RoleSystem:
			system = m.Content

		case core.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})

		case core.RoleAssistant:
			var parts []genai.Part
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, call := range m.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal(call.Arguments, &args); err != nil {
					return nil, "", fmt.Errorf("failed to rebuild function call args: %w", err)
				}
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: args})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})

		case core.RoleTool:
			contents = append(contents, &genai.Content{
				Role: "function",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     m.ToolName,
					Response: map[string]any{"result": m.Content},
				}},
			})
		}
	}
	return contents, system, nil
}

// toGeminiTools converts tool descriptors into function declarations
func toGeminiTools(defs []core.ToolDefinition) ([]*genai.Tool, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	var decls []*genai.FunctionDeclaration
	for _, def := range defs {
		params, err := toGeminiSchema(def.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to convert schema for tool %q: %w", def.Name, err)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  params,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}
