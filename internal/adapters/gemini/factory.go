package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ScottHolden/FlyPhishing/internal/config"
	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// Factory creates chat clients backed by Google Gemini
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Gemini chat clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateChatClient creates a Gemini chat client
func (f *Factory) CreateChatClient() (core.ChatClient, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(geminiCfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewChatClient(
		client,
		geminiCfg.ModelName,
		int32(geminiCfg.MaxTokens),
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger,
	), nil
}
