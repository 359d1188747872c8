package core

import "errors"

// Fatal run errors. Each one aborts the current detection run immediately
// and is never retried internally; use errors.Is at the calling boundary to
// map them to distinct diagnostics. Errors from the model provider or the
// URL scanner transport itself pass through wrapped and are retryable by
// the caller.
var (
	// ErrUnknownTool is returned when the model calls a tool name that was
	// never registered
	ErrUnknownTool = errors.New("unknown tool requested")

	// ErrInvalidToolArguments is returned when a tool-call payload does not
	// decode into the tool's declared argument shape
	ErrInvalidToolArguments = errors.New("invalid tool arguments")

	// ErrMalformedResult is returned when the model's terminal answer does
	// not conform to the detection verdict schema
	ErrMalformedResult = errors.New("malformed detection result")

	// ErrUnexpectedFinishReason is returned when the model stops for a
	// reason the engine cannot handle
	ErrUnexpectedFinishReason = errors.New("unexpected finish reason")

	// ErrExceededMaxRounds is returned when the conversation does not reach
	// a terminal answer within the configured round budget
	ErrExceededMaxRounds = errors.New("exceeded maximum conversation rounds")
)
