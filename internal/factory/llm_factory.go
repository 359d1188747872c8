package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/adapters/bedrock"
	"github.com/ScottHolden/FlyPhishing/internal/adapters/gemini"
	"github.com/ScottHolden/FlyPhishing/internal/adapters/openai"
	"github.com/ScottHolden/FlyPhishing/internal/config"
	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// LLMFactory creates chat clients for the configured provider
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateChatClient creates a new chat client based on the configuration
func (f *LLMFactory) CreateChatClient() (core.ChatClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "openai":
		return openai.NewFactory(f.cfg, f.logger).CreateChatClient()
	case "azure":
		return openai.NewFactory(f.cfg, f.logger).CreateAzureChatClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger).CreateChatClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger).CreateChatClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
