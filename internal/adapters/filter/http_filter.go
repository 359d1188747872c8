package filter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

const maxRequestBody = 10 << 20 // 10MB

// HTTPFilter exposes detection as a single HTTP endpoint: POST /v1/detect
// accepts the raw email and returns the detection report as JSON.
type HTTPFilter struct {
	service    *core.DetectionService
	logger     *zap.Logger
	listenAddr string
	server     *http.Server
}

// errorResponse maps one fatal error kind to a distinct diagnostic
type errorResponse struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
}

// NewHTTPFilter creates a new HTTP filter
func NewHTTPFilter(service *core.DetectionService, logger *zap.Logger, listenAddr string) *HTTPFilter {
	return &HTTPFilter{
		service:    service,
		logger:     logger,
		listenAddr: listenAddr,
	}
}

// Routes builds the HTTP router
func (f *HTTPFilter) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Post("/v1/detect", f.handleDetect)

	return r
}

func (f *HTTPFilter) handleDetect(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		f.writeError(w, http.StatusBadRequest, "read_failed", "failed to read request body")
		return
	}
	if len(raw) == 0 {
		f.writeError(w, http.StatusBadRequest, "empty_body", "request body must contain an email")
		return
	}

	email, err := parseEmail(raw)
	if err != nil {
		f.writeError(w, http.StatusBadRequest, "parse_failed", err.Error())
		return
	}

	report, err := f.service.AnalyzeEmail(r.Context(), email)
	if err != nil {
		status, kind := classifyError(err)
		f.logger.Error("Detection request failed",
			zap.String("kind", kind),
			zap.String("sender", email.From),
			zap.Error(err))
		f.writeError(w, status, kind, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		f.logger.Error("Failed to encode detection report", zap.Error(err))
	}
}

// classifyError maps each fatal error kind to a distinct status and
// diagnostic name so schema drift and unexpected model behavior are
// debuggable from the outside
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrUnknownTool):
		return http.StatusBadGateway, "unknown_tool"
	case errors.Is(err, core.ErrInvalidToolArguments):
		return http.StatusBadGateway, "invalid_tool_arguments"
	case errors.Is(err, core.ErrMalformedResult):
		return http.StatusBadGateway, "malformed_result"
	case errors.Is(err, core.ErrUnexpectedFinishReason):
		return http.StatusBadGateway, "unexpected_finish_reason"
	case errors.Is(err, core.ErrExceededMaxRounds):
		return http.StatusBadGateway, "exceeded_max_rounds"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded"
	default:
		return http.StatusServiceUnavailable, "provider_unavailable"
	}
}

func (f *HTTPFilter) writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Kind: kind, Message: message})
}

// ProcessEmail analyzes an email directly, bypassing the HTTP layer
func (f *HTTPFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.DetectionReport, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// Start starts the HTTP server
func (f *HTTPFilter) Start() error {
	f.server = &http.Server{
		Addr:         f.listenAddr,
		Handler:      f.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}

	f.logger.Info("HTTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the HTTP server down gracefully
func (f *HTTPFilter) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return f.server.Shutdown(ctx)
}
