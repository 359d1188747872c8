package openai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/config"
	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// Factory creates chat clients backed by OpenAI or Azure OpenAI
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAI chat clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateChatClient creates a chat client against the public OpenAI API
func (f *Factory) CreateChatClient() (core.ChatClient, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is not configured")
	}

	var client *openai.Client
	if openaiCfg.BaseURL != "" {
		clientCfg := openai.DefaultConfig(openaiCfg.APIKey)
		clientCfg.BaseURL = openaiCfg.BaseURL
		client = openai.NewClientWithConfig(clientCfg)
	} else {
		client = openai.NewClient(openaiCfg.APIKey)
	}

	return NewChatClient(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		f.logger,
	), nil
}

// CreateAzureChatClient creates a chat client against an Azure OpenAI
// deployment
func (f *Factory) CreateAzureChatClient() (core.ChatClient, error) {
	azureCfg := f.cfg.GetAzure()
	if azureCfg.APIKey == "" || azureCfg.Endpoint == "" {
		return nil, fmt.Errorf("azure openai api key and endpoint must be configured")
	}

	clientCfg := openai.DefaultAzureConfig(azureCfg.APIKey, azureCfg.Endpoint)
	if azureCfg.APIVersion != "" {
		clientCfg.APIVersion = azureCfg.APIVersion
	}
	client := openai.NewClientWithConfig(clientCfg)

	openaiCfg := f.cfg.GetOpenAI()
	return NewChatClient(
		client,
		azureCfg.Deployment,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		f.logger,
	), nil
}
