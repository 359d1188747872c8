package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSystemPrompt seeds every detection conversation
const DefaultSystemPrompt = `You are a phishing detection system. Analyze the email provided by the user and decide whether it is a phishing attempt.

Use the checkUrl tool to check the reputation of any URL you find in the email before you decide. Check each distinct URL once.

When you are done, answer with a JSON object matching the required schema: whether the email is suspicious, a one-sentence summary, and the list of indicators you detected with your reasoning for each. Respond only with the JSON object and nothing else.`

const emailPromptFormat = `Analyze the following email for phishing.

From: %s
To: %s
Subject: %s
Body:
%s`

// Engine drives the multi-turn tool-calling conversation for one email at a
// time. A run walks seeded -> awaiting model -> (tool phase -> awaiting
// model)* and terminates in done or failed; done is the only state that
// yields a verdict. Rounds and tool dispatches are strictly sequential
// because they share the run's history and verdict map. The engine itself is
// stateless across runs and safe for concurrent use as long as its chat
// client and tools are.
type Engine struct {
	chat         ChatClient
	registry     *ToolRegistry
	codec        VerdictCodec
	logger       *zap.Logger
	systemPrompt string
	maxRounds    int
	roundTimeout time.Duration
}

// NewEngine creates a detection engine. systemPrompt falls back to
// DefaultSystemPrompt when empty; maxRounds bounds the conversation and must
// be positive; roundTimeout of zero disables the per-round deadline.
func NewEngine(
	chat ChatClient,
	registry *ToolRegistry,
	codec VerdictCodec,
	logger *zap.Logger,
	systemPrompt string,
	maxRounds int,
	roundTimeout time.Duration,
) *Engine {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Engine{
		chat:         chat,
		registry:     registry,
		codec:        codec,
		logger:       logger,
		systemPrompt: systemPrompt,
		maxRounds:    maxRounds,
		roundTimeout: roundTimeout,
	}
}

// Detect runs one full detection conversation for the given email. It
// returns either a complete report or an error; no partial report is ever
// produced. Fatal error kinds are distinguishable with errors.Is against
// the sentinels in this package.
func (e *Engine) Detect(ctx context.Context, email *Email) (*DetectionReport, error) {
	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))
	logger.Info("Starting detection run",
		zap.String("from", email.From),
		zap.Int("body_size", len(email.Body)))

	run := &RunState{
		History: []Message{
			{Role: RoleSystem, Content: e.systemPrompt},
			{Role: RoleUser, Content: renderEmailPrompt(email)},
		},
		URLVerdicts: NewURLVerdicts(),
	}
	opts := ChatOptions{
		ResultFormat: e.codec.Format(),
		Tools:        e.registry.Definitions(),
	}
	disp := &dispatcher{registry: e.registry, logger: logger}

	var modelUsed string
	for round := 1; ; round++ {
		if round > e.maxRounds {
			logger.Error("Detection run exhausted round budget",
				zap.Int("max_rounds", e.maxRounds))
			return nil, fmt.Errorf("%w (%d)", ErrExceededMaxRounds, e.maxRounds)
		}

		resp, err := e.completeRound(ctx, run.History, opts)
		if err != nil {
			return nil, fmt.Errorf("model round %d failed: %w", round, err)
		}
		if resp.Model != "" {
			modelUsed = resp.Model
		}
		logger.Debug("Model round finished",
			zap.Int("round", round),
			zap.Stringer("finish_signal", resp.FinishSignal),
			zap.Int("tool_calls", len(resp.ToolCalls)))

		switch resp.FinishSignal {
		case FinishCompleted:
			verdict, err := e.codec.Decode([]byte(resp.Content))
			if err != nil {
				logger.Error("Terminal answer rejected by schema", zap.Error(err))
				return nil, fmt.Errorf("%w: %s", ErrMalformedResult, err)
			}
			report := assembleReport(runID, modelUsed, verdict, run.URLVerdicts)
			logger.Info("Detection run complete",
				zap.Bool("suspicious", verdict.Suspicious),
				zap.Int("rounds", round),
				zap.Int("urls_checked", run.URLVerdicts.Len()))
			return report, nil

		case FinishToolCalls:
			run.History = append(run.History, Message{
				Role:      RoleAssistant,
				Content:   resp.Content,
				ToolCalls: resp.ToolCalls,
			})
			// Resolved one at a time in emission order: each dispatch
			// mutates the shared history and verdict map.
			for _, call := range resp.ToolCalls {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if err := disp.Dispatch(ctx, run, call); err != nil {
					return nil, err
				}
			}

		default:
			logger.Error("Model stopped for unhandled reason",
				zap.Stringer("finish_signal", resp.FinishSignal))
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedFinishReason, resp.FinishSignal)
		}
	}
}

// completeRound issues a single model request, the only suspension point of
// the engine
func (e *Engine) completeRound(ctx context.Context, history []Message, opts ChatOptions) (*ChatResponse, error) {
	if e.roundTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.roundTimeout)
		defer cancel()
	}
	return e.chat.CompleteChat(ctx, history, opts)
}

func renderEmailPrompt(email *Email) string {
	to := ""
	if len(email.To) > 0 {
		to = email.To[0]
		if len(email.To) > 1 {
			to += fmt.Sprintf(" and %d others", len(email.To)-1)
		}
	}
	return fmt.Sprintf(emailPromptFormat, email.From, to, email.Subject, email.Body)
}
