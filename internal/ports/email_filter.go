package ports

import (
	"context"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// EmailFilter defines the interface for a detection front-end
type EmailFilter interface {
	// ProcessEmail analyzes an email and returns the detection report
	ProcessEmail(ctx context.Context, email *core.Email) (*core.DetectionReport, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
