package core

import (
	"encoding/json"
	"time"
)

// Email represents an email message submitted for analysis
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// Role identifies the author of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a detection run's conversation history.
// The history is append-only and ordered; the full sequence is the prompt
// context for every subsequent model call.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool messages and link the result
	// back to the call it answers. ToolName is carried because some providers
	// address tool results by function name rather than call ID.
	ToolCallID string
	ToolName   string
}

// ToolCall is a structured request from the model to invoke a named tool.
// The ID is unique within one model response.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// FinishSignal is the model's indication of why it stopped generating
type FinishSignal int

const (
	// FinishCompleted means the model produced its terminal structured answer
	FinishCompleted FinishSignal = iota
	// FinishToolCalls means the model wants tool results before continuing
	FinishToolCalls
	// FinishOther covers every reason the engine does not know how to handle
	FinishOther
)

func (f FinishSignal) String() string {
	switch f {
	case FinishCompleted:
		return "completed"
	case FinishToolCalls:
		return "tool_calls"
	default:
		return "other"
	}
}

// DetectionItem is one indicator the model found in the email
type DetectionItem struct {
	Title       string `json:"title" jsonschema:"description=Short name of the detected indicator"`
	Description string `json:"description" jsonschema:"description=What was found in the email"`
	Reasoning   string `json:"reasoning" jsonschema:"description=Why this indicates a phishing attempt"`
}

// DetectionVerdict is the model's structured answer for one detection run.
// It is produced at most once per run, only on the completed path, and must
// conform to the registered result schema.
type DetectionVerdict struct {
	Suspicious       bool            `json:"suspicious" jsonschema:"description=Whether the email looks like a phishing attempt"`
	ShortDescription string          `json:"shortDescription" jsonschema:"description=One-sentence summary of the verdict"`
	DetectedItems    []DetectionItem `json:"detectedItems" jsonschema:"description=Indicators supporting the verdict in order of importance"`
}

// DetectionReport is the externally visible result of a successful run:
// the verdict plus every URL verdict collected during the conversation.
// Immutable once assembled.
type DetectionReport struct {
	Verdict     DetectionVerdict `json:"verdict"`
	URLVerdicts *URLVerdicts     `json:"urlVerdicts"`
	RunID       string           `json:"runId"`
	ModelUsed   string           `json:"modelUsed"`
	AnalyzedAt  time.Time        `json:"analyzedAt"`
}
