package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CheckURLToolName is the function name the model uses to request a URL check
const CheckURLToolName = "checkUrl"

// CheckURLArgs is the argument payload of the checkUrl tool
type CheckURLArgs struct {
	URL string `json:"url" jsonschema:"description=The full URL to check"`
}

// CheckURLTool checks the reputation of a URL through the configured scanner.
// Identical requests within one run are answered from the run's verdict map
// without touching the scanner; distinct URLs are recorded there on first
// resolution. An optional cross-run cache sits between the per-run map and
// the scanner.
type CheckURLTool struct {
	scanner  URLScanner
	cache    VerdictCache
	cacheTTL time.Duration
	params   json.RawMessage
	logger   *zap.Logger
}

// NewCheckURLTool creates the checkUrl tool handler. params is the JSON
// schema of CheckURLArgs; cache may be nil to disable cross-run caching.
func NewCheckURLTool(
	scanner URLScanner,
	cache VerdictCache,
	cacheTTL time.Duration,
	params json.RawMessage,
	logger *zap.Logger,
) *CheckURLTool {
	return &CheckURLTool{
		scanner:  scanner,
		cache:    cache,
		cacheTTL: cacheTTL,
		params:   params,
		logger:   logger,
	}
}

// Definition describes the checkUrl tool to the model
func (t *CheckURLTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        CheckURLToolName,
		Description: "Check whether a URL found in the email is known to be malicious, suspicious or safe",
		Parameters:  t.params,
	}
}

// Invoke resolves one checkUrl call against the run state
func (t *CheckURLTool) Invoke(ctx context.Context, args json.RawMessage, run *RunState) (string, error) {
	var payload CheckURLArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidToolArguments, err)
	}
	if payload.URL == "" {
		return "", fmt.Errorf("%w: missing url", ErrInvalidToolArguments)
	}

	// Within one run the same URL is never scanned twice; the model may
	// legitimately repeat a URL that appears multiple times in the email.
	if verdict, ok := run.URLVerdicts.Get(payload.URL); ok {
		t.logger.Debug("Reusing verdict from run",
			zap.String("url", payload.URL),
			zap.String("verdict", verdict))
		return verdict, nil
	}

	if t.cache != nil {
		if verdict, ok := t.cache.Get(ctx, payload.URL); ok {
			t.logger.Debug("Verdict cache hit", zap.String("url", payload.URL))
			run.URLVerdicts.Record(payload.URL, verdict)
			return verdict, nil
		}
	}

	verdict, err := t.scanner.Scan(ctx, payload.URL)
	if err != nil {
		return "", fmt.Errorf("failed to scan url %q: %w", payload.URL, err)
	}

	run.URLVerdicts.Record(payload.URL, verdict)
	if t.cache != nil {
		t.cache.Set(ctx, payload.URL, verdict, t.cacheTTL)
	}

	t.logger.Info("Scanned URL",
		zap.String("url", payload.URL),
		zap.String("verdict", verdict))
	return verdict, nil
}
