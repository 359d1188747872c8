package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/config"
	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// Factory creates chat clients backed by Amazon Bedrock
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Bedrock chat clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateChatClient creates a Bedrock chat client using the default AWS
// credential chain
func (f *Factory) CreateChatClient() (core.ChatClient, error) {
	bedrockCfg := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg)
	return NewChatClient(
		client,
		bedrockCfg.ModelID,
		int32(bedrockCfg.MaxTokens),
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		f.logger,
	), nil
}
