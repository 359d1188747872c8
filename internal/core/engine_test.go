package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedChatClient replays a fixed sequence of responses, one per round
type scriptedChatClient struct {
	responses []*ChatResponse
	calls     int
	histories [][]Message
}

func (c *scriptedChatClient) CompleteChat(_ context.Context, history []Message, _ ChatOptions) (*ChatResponse, error) {
	snapshot := make([]Message, len(history))
	copy(snapshot, history)
	c.histories = append(c.histories, snapshot)

	if c.calls >= len(c.responses) {
		return nil, fmt.Errorf("no scripted response for round %d", c.calls+1)
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

// jsonCodec decodes verdicts without schema validation, strict on unknown
// fields to mirror the production codec's behavior
type jsonCodec struct{}

func (jsonCodec) Format() ResultFormat {
	return ResultFormat{Name: "phishing_detection_result", Schema: json.RawMessage(`{"type":"object"}`)}
}

func (jsonCodec) Decode(data []byte) (*DetectionVerdict, error) {
	var verdict DetectionVerdict
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

type countingScanner struct {
	verdicts map[string]string
	scans    []string
}

func (s *countingScanner) Scan(_ context.Context, url string) (string, error) {
	s.scans = append(s.scans, url)
	if verdict, ok := s.verdicts[url]; ok {
		return verdict, nil
	}
	return "URL is safe", nil
}

type mapCache struct {
	entries map[string]string
	sets    int
}

func (c *mapCache) Get(_ context.Context, url string) (string, bool) {
	verdict, ok := c.entries[url]
	return verdict, ok
}

func (c *mapCache) Set(_ context.Context, url string, verdict string, _ time.Duration) {
	c.entries[url] = verdict
	c.sets++
}

func newTestEngine(t *testing.T, chat ChatClient, scanner URLScanner, cache VerdictCache, maxRounds int) *Engine {
	t.Helper()
	params := json.RawMessage(`{"type":"object","properties":{"url":{"type":"string"}},"required":["url"]}`)
	checkURL := NewCheckURLTool(scanner, cache, time.Hour, params, zap.NewNop())
	registry := NewToolRegistry(checkURL)
	return NewEngine(chat, registry, jsonCodec{}, zap.NewNop(), "", maxRounds, 0)
}

func testEmail() *Email {
	return &Email{
		From:    "alice@example.com",
		To:      []string{"bob@example.com"},
		Subject: "Invoice overdue",
		Body:    "Pay now at http://bank.evil/login",
	}
}

func toolCallResponse(calls ...ToolCall) *ChatResponse {
	return &ChatResponse{FinishSignal: FinishToolCalls, ToolCalls: calls, Model: "test-model"}
}

func verdictResponse(suspicious bool, summary string) *ChatResponse {
	content, _ := json.Marshal(DetectionVerdict{
		Suspicious:       suspicious,
		ShortDescription: summary,
		DetectedItems:    []DetectionItem{},
	})
	return &ChatResponse{FinishSignal: FinishCompleted, Content: string(content), Model: "test-model"}
}

func checkURLCall(id, url string) ToolCall {
	return ToolCall{
		ID:        id,
		Name:      CheckURLToolName,
		Arguments: json.RawMessage(fmt.Sprintf(`{"url":%q}`, url)),
	}
}

func TestDetectCompletesWithoutTools(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		verdictResponse(false, "Nothing unusual"),
	}}
	engine := newTestEngine(t, chat, &countingScanner{}, nil, 10)

	report, err := engine.Detect(context.Background(), testEmail())
	require.NoError(t, err)

	assert.False(t, report.Verdict.Suspicious)
	assert.Equal(t, "Nothing unusual", report.Verdict.ShortDescription)
	assert.Equal(t, 0, report.URLVerdicts.Len())
	assert.Equal(t, "test-model", report.ModelUsed)
	assert.NotEmpty(t, report.RunID)
}

func TestDetectSeedsSystemAndUserMessages(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		verdictResponse(false, "ok"),
	}}
	engine := newTestEngine(t, chat, &countingScanner{}, nil, 10)

	_, err := engine.Detect(context.Background(), testEmail())
	require.NoError(t, err)

	require.Len(t, chat.histories, 1)
	seeded := chat.histories[0]
	require.Len(t, seeded, 2)
	assert.Equal(t, RoleSystem, seeded[0].Role)
	assert.Equal(t, DefaultSystemPrompt, seeded[0].Content)
	assert.Equal(t, RoleUser, seeded[1].Role)
	assert.Contains(t, seeded[1].Content, "alice@example.com")
	assert.Contains(t, seeded[1].Content, "Invoice overdue")
	assert.Contains(t, seeded[1].Content, "http://bank.evil/login")
}

func TestDetectRunsToolRoundsAndCollectsVerdicts(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		toolCallResponse(
			checkURLCall("call_1", "http://bank.evil/login"),
			checkURLCall("call_2", "http://example.com"),
		),
		verdictResponse(true, "Credential phishing"),
	}}
	scanner := &countingScanner{verdicts: map[string]string{
		"http://bank.evil/login": "URL is malicious",
	}}
	engine := newTestEngine(t, chat, scanner, nil, 10)

	report, err := engine.Detect(context.Background(), testEmail())
	require.NoError(t, err)

	assert.True(t, report.Verdict.Suspicious)
	assert.Equal(t, []string{"http://bank.evil/login", "http://example.com"}, report.URLVerdicts.URLs())
	verdict, ok := report.URLVerdicts.Get("http://bank.evil/login")
	require.True(t, ok)
	assert.Equal(t, "URL is malicious", verdict)

	// Second round history: seed pair, assistant tool request, one tool
	// result per call, IDs preserved.
	require.Len(t, chat.histories, 2)
	history := chat.histories[1]
	require.Len(t, history, 5)
	assert.Equal(t, RoleAssistant, history[2].Role)
	require.Len(t, history[2].ToolCalls, 2)
	assert.Equal(t, RoleTool, history[3].Role)
	assert.Equal(t, "call_1", history[3].ToolCallID)
	assert.Equal(t, CheckURLToolName, history[3].ToolName)
	assert.Equal(t, "URL is malicious", history[3].Content)
	assert.Equal(t, RoleTool, history[4].Role)
	assert.Equal(t, "call_2", history[4].ToolCallID)
}

func TestDetectScansRepeatedURLOnce(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		toolCallResponse(
			checkURLCall("call_1", "http://bank.evil/login"),
			checkURLCall("call_2", "http://bank.evil/login"),
		),
		toolCallResponse(
			checkURLCall("call_3", "http://bank.evil/login"),
		),
		verdictResponse(true, "Credential phishing"),
	}}
	scanner := &countingScanner{verdicts: map[string]string{
		"http://bank.evil/login": "URL is malicious",
	}}
	engine := newTestEngine(t, chat, scanner, nil, 10)

	report, err := engine.Detect(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, []string{"http://bank.evil/login"}, scanner.scans)
	assert.Equal(t, 1, report.URLVerdicts.Len())

	// Every repeated call still gets its own tool result message
	final := chat.histories[2]
	toolMessages := 0
	for _, msg := range final {
		if msg.Role == RoleTool {
			toolMessages++
			assert.Equal(t, "URL is malicious", msg.Content)
		}
	}
	assert.Equal(t, 3, toolMessages)
}

func TestDetectUsesCachedVerdict(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		toolCallResponse(checkURLCall("call_1", "http://bank.evil/login")),
		verdictResponse(true, "Known bad URL"),
	}}
	scanner := &countingScanner{}
	cache := &mapCache{entries: map[string]string{
		"http://bank.evil/login": "URL is malicious",
	}}
	engine := newTestEngine(t, chat, scanner, cache, 10)

	report, err := engine.Detect(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Empty(t, scanner.scans)
	verdict, ok := report.URLVerdicts.Get("http://bank.evil/login")
	require.True(t, ok)
	assert.Equal(t, "URL is malicious", verdict)
}

func TestDetectStoresScannedVerdictInCache(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		toolCallResponse(checkURLCall("call_1", "http://example.com")),
		verdictResponse(false, "Benign newsletter"),
	}}
	scanner := &countingScanner{}
	cache := &mapCache{entries: map[string]string{}}
	engine := newTestEngine(t, chat, scanner, cache, 10)

	_, err := engine.Detect(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, "URL is safe", cache.entries["http://example.com"])
}

func TestDetectFailsOnUnknownTool(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		toolCallResponse(ToolCall{ID: "call_1", Name: "lookupSender", Arguments: json.RawMessage(`{}`)}),
	}}
	engine := newTestEngine(t, chat, &countingScanner{}, nil, 10)

	report, err := engine.Detect(context.Background(), testEmail())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "lookupSender")
}

func TestDetectFailsOnInvalidToolArguments(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		toolCallResponse(ToolCall{ID: "call_1", Name: CheckURLToolName, Arguments: json.RawMessage(`{"address":"x"}`)}),
	}}
	engine := newTestEngine(t, chat, &countingScanner{}, nil, 10)

	report, err := engine.Detect(context.Background(), testEmail())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrInvalidToolArguments)
}

func TestDetectFailsOnMalformedResult(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		{FinishSignal: FinishCompleted, Content: "I think this email is suspicious"},
	}}
	engine := newTestEngine(t, chat, &countingScanner{}, nil, 10)

	report, err := engine.Detect(context.Background(), testEmail())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrMalformedResult)
}

func TestDetectFailsOnUnexpectedFinishReason(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		{FinishSignal: FinishOther},
	}}
	engine := newTestEngine(t, chat, &countingScanner{}, nil, 10)

	report, err := engine.Detect(context.Background(), testEmail())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrUnexpectedFinishReason)
}

func TestDetectFailsAfterMaxRounds(t *testing.T) {
	responses := make([]*ChatResponse, 0, 3)
	for i := 0; i < 3; i++ {
		responses = append(responses, toolCallResponse(
			checkURLCall(fmt.Sprintf("call_%d", i), fmt.Sprintf("http://example.com/%d", i)),
		))
	}
	chat := &scriptedChatClient{responses: responses}
	engine := newTestEngine(t, chat, &countingScanner{}, nil, 3)

	report, err := engine.Detect(context.Background(), testEmail())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrExceededMaxRounds)
	assert.Equal(t, 3, chat.calls)
}

func TestDetectPropagatesContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chat := &scriptedChatClient{responses: []*ChatResponse{
		toolCallResponse(checkURLCall("call_1", "http://example.com")),
	}}
	scanner := &countingScanner{}
	engine := newTestEngine(t, chat, scanner, nil, 10)

	cancel()
	_, err := engine.Detect(ctx, testEmail())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, scanner.scans)
}

func TestDetectFailsWhenScannerFails(t *testing.T) {
	chat := &scriptedChatClient{responses: []*ChatResponse{
		toolCallResponse(checkURLCall("call_1", "http://example.com")),
	}}
	engine := NewEngine(
		chat,
		NewToolRegistry(NewCheckURLTool(failingScanner{}, nil, 0, json.RawMessage(`{}`), zap.NewNop())),
		jsonCodec{},
		zap.NewNop(),
		"",
		10,
		0,
	)

	report, err := engine.Detect(context.Background(), testEmail())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.NotErrorIs(t, err, ErrUnknownTool)
	assert.NotErrorIs(t, err, ErrInvalidToolArguments)
}

type failingScanner struct{}

func (failingScanner) Scan(context.Context, string) (string, error) {
	return "", errors.New("scanner unreachable")
}

func TestNewToolRegistryPanicsOnDuplicate(t *testing.T) {
	tool := NewCheckURLTool(&countingScanner{}, nil, 0, json.RawMessage(`{}`), zap.NewNop())
	assert.Panics(t, func() {
		NewToolRegistry(tool, tool)
	})
}

func TestNewEngineDefaultsSystemPrompt(t *testing.T) {
	engine := newTestEngine(t, &scriptedChatClient{}, &countingScanner{}, nil, 1)
	assert.Equal(t, DefaultSystemPrompt, engine.systemPrompt)
}
