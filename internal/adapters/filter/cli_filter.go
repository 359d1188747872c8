package filter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// CliFilter implements a command-line interface for phishing detection
type CliFilter struct {
	service *core.DetectionService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.DetectionService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail processes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.DetectionReport, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	fmt.Printf("Analyzing email with LLM...\n")
	startTime := time.Now()
	report, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Suspicious: %t\n", report.Verdict.Suspicious)
	fmt.Printf("Summary: %s\n", report.Verdict.ShortDescription)
	if len(report.Verdict.DetectedItems) > 0 {
		fmt.Printf("Detected items:\n")
		for _, item := range report.Verdict.DetectedItems {
			fmt.Printf("  - %s: %s\n", item.Title, item.Description)
		}
	}
	if report.URLVerdicts.Len() > 0 {
		fmt.Printf("URL verdicts:\n")
		for _, url := range report.URLVerdicts.URLs() {
			verdict, _ := report.URLVerdicts.Get(url)
			fmt.Printf("  - %s => %s\n", url, verdict)
		}
	}
	fmt.Printf("Model used: %s\n", report.ModelUsed)
	fmt.Printf("Run ID: %s\n", report.RunID)
	fmt.Printf("Processing time: %v\n", duration)

	return report, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
