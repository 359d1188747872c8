package core

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// ToolHandler executes one kind of tool call against per-run state
type ToolHandler interface {
	// Definition describes the tool to the model
	Definition() ToolDefinition

	// Invoke decodes the argument payload and produces the tool result text.
	// Argument decoding failures must wrap ErrInvalidToolArguments.
	Invoke(ctx context.Context, args json.RawMessage, run *RunState) (string, error)
}

// ToolRegistry maps tool names to handlers. It is populated once at engine
// construction and read-only afterwards, so adding a tool never touches the
// round-loop logic.
type ToolRegistry struct {
	handlers map[string]ToolHandler
	order    []string
}

// NewToolRegistry creates a registry from the given handlers.
// A duplicate tool name panics: registration happens once at startup and a
// collision is a programming error.
func NewToolRegistry(handlers ...ToolHandler) *ToolRegistry {
	r := &ToolRegistry{handlers: make(map[string]ToolHandler)}
	for _, h := range handlers {
		name := h.Definition().Name
		if _, exists := r.handlers[name]; exists {
			panic(fmt.Sprintf("tool %q registered twice", name))
		}
		r.handlers[name] = h
		r.order = append(r.order, name)
	}
	return r
}

// Definitions returns the tool descriptors in registration order
func (r *ToolRegistry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.handlers[name].Definition())
	}
	return defs
}

// RunState is the mutable state of one detection run, shared by the engine
// and the tool dispatcher: the append-only message history and the
// insertion-ordered URL verdict map
type RunState struct {
	History     []Message
	URLVerdicts *URLVerdicts
}

// dispatcher resolves the tool calls of one model response against a run
type dispatcher struct {
	registry *ToolRegistry
	logger   *zap.Logger
}

// Dispatch looks up the tool, invokes it and appends exactly one tool
// message preserving the call's identifier. An unknown tool name or an
// invalid payload is fatal for the run.
func (d *dispatcher) Dispatch(ctx context.Context, run *RunState, call ToolCall) error {
	handler, ok := d.registry.handlers[call.Name]
	if !ok {
		d.logger.Error("Model requested unregistered tool",
			zap.String("tool", call.Name),
			zap.String("tool_call_id", call.ID))
		return fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	result, err := handler.Invoke(ctx, call.Arguments, run)
	if err != nil {
		return fmt.Errorf("tool %q: %w", call.Name, err)
	}

	run.History = append(run.History, Message{
		Role:       RoleTool,
		Content:    result,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	})
	return nil
}
