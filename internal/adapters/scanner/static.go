// Package scanner provides URL reputation scanners for the checkUrl tool.
package scanner

import (
	"context"

	"go.uber.org/zap"
)

// StaticScanner is a placeholder implementation of the core.URLScanner
// interface that answers every URL with a fixed verdict. Useful for
// development and for deployments where the reputation service is not yet
// wired up.
type StaticScanner struct {
	verdict string
	logger  *zap.Logger
}

// NewStaticScanner creates a scanner that always returns verdict
func NewStaticScanner(verdict string, logger *zap.Logger) *StaticScanner {
	return &StaticScanner{verdict: verdict, logger: logger}
}

// Scan returns the configured verdict for any URL
func (s *StaticScanner) Scan(_ context.Context, url string) (string, error) {
	s.logger.Debug("Static scan", zap.String("url", url), zap.String("verdict", s.verdict))
	return s.verdict, nil
}
