package core

import (
	"context"
	"encoding/json"
	"time"
)

// ToolDefinition describes one callable tool to the model
type ToolDefinition struct {
	Name        string
	Description string
	// Parameters is the JSON schema of the tool's argument payload
	Parameters json.RawMessage
}

// ResultFormat is the strict structured-output constraint applied to the
// model's terminal answer
type ResultFormat struct {
	Name   string
	Schema json.RawMessage
}

// ChatOptions carries the fixed per-request configuration the engine sends
// with every round: the result format, the tool descriptors, parallel tool
// calls disabled and automatic tool choice. Adapters that cannot express one
// of these natively must approximate it and leave enforcement to the engine.
type ChatOptions struct {
	ResultFormat ResultFormat
	Tools        []ToolDefinition
}

// ChatResponse is one model round-trip result: the finish signal plus either
// terminal content or an ordered sequence of tool calls
type ChatResponse struct {
	FinishSignal FinishSignal
	Content      string
	ToolCalls    []ToolCall
	Model        string
}

// ChatClient defines the interface for the model provider boundary.
// Implementations must be safe for concurrent use by independent runs.
type ChatClient interface {
	// CompleteChat issues one model request over the full conversation history
	CompleteChat(ctx context.Context, history []Message, opts ChatOptions) (*ChatResponse, error)
}

// URLScanner defines the interface for checking the reputation of a URL.
// Implementations must be safe for concurrent use; the dispatcher guarantees
// a scanner is never invoked twice for the same URL within one run.
type URLScanner interface {
	// Scan returns a human-readable verdict for the given URL
	Scan(ctx context.Context, url string) (string, error)
}

// VerdictCache defines the interface for caching URL verdicts across runs.
// A lookup miss is not an error; cache failures must never fail a run.
type VerdictCache interface {
	// Get retrieves a cached verdict for a URL
	Get(ctx context.Context, url string) (string, bool)

	// Set stores a verdict for a URL
	Set(ctx context.Context, url string, verdict string, ttl time.Duration)
}

// VerdictCodec validates and decodes the model's terminal answer against the
// registered detection verdict schema
type VerdictCodec interface {
	// Format returns the strict result format advertised to the model
	Format() ResultFormat

	// Decode parses and validates a terminal answer. It either succeeds
	// fully or fails; no partially populated verdict is ever returned.
	Decode(data []byte) (*DetectionVerdict, error)
}
