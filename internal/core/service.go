package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/utils"
	"github.com/ScottHolden/FlyPhishing/internal/whitelist"
)

// Detector runs one full detection conversation for an email.
// *Engine is the production implementation.
type Detector interface {
	Detect(ctx context.Context, email *Email) (*DetectionReport, error)
}

// DetectionService sits between the front-ends and the engine: trusted
// sender domains bypass the model entirely, and email bodies are sanitized
// and truncated before a run starts.
type DetectionService struct {
	detector      Detector
	textProcessor *utils.TextProcessor
	whitelist     *whitelist.Checker
	logger        *zap.Logger
	maxBodySize   int
	runTimeout    time.Duration
}

// NewDetectionService creates a new detection service
func NewDetectionService(
	detector Detector,
	textProcessor *utils.TextProcessor,
	whitelistChecker *whitelist.Checker,
	logger *zap.Logger,
	maxBodySize int,
	runTimeout time.Duration,
) *DetectionService {
	return &DetectionService{
		detector:      detector,
		textProcessor: textProcessor,
		whitelist:     whitelistChecker,
		logger:        logger,
		maxBodySize:   maxBodySize,
		runTimeout:    runTimeout,
	}
}

// AnalyzeEmail checks if an email is a phishing attempt
func (s *DetectionService) AnalyzeEmail(ctx context.Context, email *Email) (*DetectionReport, error) {
	if s.whitelist != nil && s.whitelist.IsWhitelisted(email.From) {
		s.logger.Info("Skipping detection for whitelisted domain",
			zap.String("sender", email.From),
			zap.String("action", "whitelist_bypass"))

		return &DetectionReport{
			Verdict: DetectionVerdict{
				Suspicious:       false,
				ShortDescription: "Sender domain is whitelisted",
				DetectedItems:    []DetectionItem{},
			},
			URLVerdicts: NewURLVerdicts(),
			RunID:       uuid.NewString(),
			ModelUsed:   "whitelist",
			AnalyzedAt:  time.Now(),
		}, nil
	}

	processed := *email
	processed.Body = s.textProcessor.ProcessText(email.Body, s.maxBodySize)

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	return s.detector.Detect(ctx, &processed)
}
