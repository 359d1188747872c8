package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/adapters/scanner"
	"github.com/ScottHolden/FlyPhishing/internal/config"
	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// ScannerFactory creates URL scanners based on configuration
type ScannerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScannerFactory creates a new scanner factory
func NewScannerFactory(cfg *config.Config, logger *zap.Logger) *ScannerFactory {
	return &ScannerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateURLScanner creates a URL scanner based on the configuration
func (f *ScannerFactory) CreateURLScanner() (core.URLScanner, error) {
	scannerCfg, err := f.cfg.GetScanner()
	if err != nil {
		return nil, fmt.Errorf("invalid scanner configuration: %w", err)
	}

	switch scannerCfg.Type {
	case "static":
		return scanner.NewStaticScanner(scannerCfg.StaticVerdict, f.logger), nil
	case "http":
		if scannerCfg.HTTPEndpoint == "" {
			return nil, fmt.Errorf("http scanner requires an endpoint")
		}
		return scanner.NewHTTPScanner(scannerCfg.HTTPEndpoint, scannerCfg.HTTPTimeout, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported scanner type: %s", scannerCfg.Type)
	}
}
