package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/config"
	"github.com/ScottHolden/FlyPhishing/internal/core"
	"github.com/ScottHolden/FlyPhishing/internal/factory"
	"github.com/ScottHolden/FlyPhishing/internal/logging"
	"github.com/ScottHolden/FlyPhishing/internal/ports"
	"github.com/ScottHolden/FlyPhishing/internal/schema"
	"github.com/ScottHolden/FlyPhishing/internal/utils"
	"github.com/ScottHolden/FlyPhishing/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewScannerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register chat client
	if err := container.Provide(func(f *factory.LLMFactory) (core.ChatClient, error) {
		return f.CreateChatClient()
	}); err != nil {
		return nil, err
	}

	// Register URL scanner
	if err := container.Provide(func(f *factory.ScannerFactory) (core.URLScanner, error) {
		return f.CreateURLScanner()
	}); err != nil {
		return nil, err
	}

	// Register verdict cache; a disabled cache resolves to nil and the
	// checkUrl tool falls back to per-run deduplication only
	if err := container.Provide(func(f *factory.CacheFactory) (core.VerdictCache, error) {
		if !f.IsCacheEnabled() {
			return nil, nil
		}
		return f.CreateVerdictCache()
	}); err != nil {
		return nil, err
	}

	// Register verdict codec
	if err := container.Provide(func() (core.VerdictCodec, error) {
		return schema.NewVerdictCodec()
	}); err != nil {
		return nil, err
	}

	// Register tool registry
	if err := container.Provide(func(
		scanner core.URLScanner,
		cache core.VerdictCache,
		cacheFactory *factory.CacheFactory,
		logger *zap.Logger,
	) (*core.ToolRegistry, error) {
		cacheTTL, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, err
		}
		params, err := schema.Generate[core.CheckURLArgs](false)
		if err != nil {
			return nil, err
		}
		checkURL := core.NewCheckURLTool(scanner, cache, cacheTTL, params, logger)
		return core.NewToolRegistry(checkURL), nil
	}); err != nil {
		return nil, err
	}

	// Register detection engine
	if err := container.Provide(func(
		cfg *config.Config,
		chat core.ChatClient,
		registry *core.ToolRegistry,
		codec core.VerdictCodec,
		logger *zap.Logger,
	) (core.Detector, error) {
		engineCfg, err := cfg.GetEngine()
		if err != nil {
			return nil, err
		}
		return core.NewEngine(
			chat,
			registry,
			codec,
			logger,
			engineCfg.SystemPrompt,
			engineCfg.MaxRounds,
			engineCfg.RoundTimeout,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register whitelist checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		whitelistedDomains := cfg.GetStringSlice("detection.whitelisted_domains")
		if len(whitelistedDomains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", whitelistedDomains))
		}
		return whitelist.NewChecker(whitelistedDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register detection service
	if err := container.Provide(func(
		cfg *config.Config,
		detector core.Detector,
		textProcessor *utils.TextProcessor,
		whitelistChecker *whitelist.Checker,
		logger *zap.Logger,
	) (*core.DetectionService, error) {
		engineCfg, err := cfg.GetEngine()
		if err != nil {
			return nil, err
		}
		return core.NewDetectionService(
			detector,
			textProcessor,
			whitelistChecker,
			logger,
			engineCfg.MaxBodySize,
			engineCfg.RunTimeout,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
