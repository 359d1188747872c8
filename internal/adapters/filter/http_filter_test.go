package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/core"
	"github.com/ScottHolden/FlyPhishing/internal/utils"
	"github.com/ScottHolden/FlyPhishing/internal/whitelist"
)

const sampleEmail = "From: mallory@attacker.test\r\n" +
	"To: victim@example.com\r\n" +
	"Subject: Urgent: verify your account\r\n" +
	"\r\n" +
	"Click http://bank.evil/login to keep your account.\r\n"

type stubDetector struct {
	report *core.DetectionReport
	err    error
	email  *core.Email
}

func (d *stubDetector) Detect(_ context.Context, email *core.Email) (*core.DetectionReport, error) {
	d.email = email
	if d.err != nil {
		return nil, d.err
	}
	return d.report, nil
}

func suspiciousReport() *core.DetectionReport {
	verdicts := core.NewURLVerdicts()
	verdicts.Record("http://bank.evil/login", "URL is malicious")
	return &core.DetectionReport{
		Verdict: core.DetectionVerdict{
			Suspicious:       true,
			ShortDescription: "Credential phishing attempt",
			DetectedItems:    []core.DetectionItem{},
		},
		URLVerdicts: verdicts,
		RunID:       "run-1",
		ModelUsed:   "test-model",
		AnalyzedAt:  time.Now(),
	}
}

func newTestFilter(detector core.Detector) *HTTPFilter {
	logger := zap.NewNop()
	service := core.NewDetectionService(
		detector,
		utils.NewTextProcessor(logger),
		whitelist.NewChecker(nil, logger),
		logger,
		16384,
		0,
	)
	return NewHTTPFilter(service, logger, "127.0.0.1:0")
}

func TestHandleDetectReturnsReport(t *testing.T) {
	detector := &stubDetector{report: suspiciousReport()}
	handler := newTestFilter(detector).Routes()

	req := httptest.NewRequest(http.MethodPost, "/v1/detect", strings.NewReader(sampleEmail))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report core.DetectionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Verdict.Suspicious)
	assert.Equal(t, "Credential phishing attempt", report.Verdict.ShortDescription)
	verdict, ok := report.URLVerdicts.Get("http://bank.evil/login")
	require.True(t, ok)
	assert.Equal(t, "URL is malicious", verdict)

	require.NotNil(t, detector.email)
	assert.Equal(t, "mallory@attacker.test", detector.email.From)
	assert.Equal(t, "Urgent: verify your account", detector.email.Subject)
	assert.Contains(t, detector.email.Body, "http://bank.evil/login")
}

func TestHandleDetectRejectsEmptyBody(t *testing.T) {
	handler := newTestFilter(&stubDetector{}).Routes()

	req := httptest.NewRequest(http.MethodPost, "/v1/detect", strings.NewReader(""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDetectClassifiesEngineErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"unknown tool", fmt.Errorf("wrap: %w", core.ErrUnknownTool), http.StatusBadGateway, "unknown_tool"},
		{"invalid tool arguments", fmt.Errorf("wrap: %w", core.ErrInvalidToolArguments), http.StatusBadGateway, "invalid_tool_arguments"},
		{"malformed result", fmt.Errorf("wrap: %w", core.ErrMalformedResult), http.StatusBadGateway, "malformed_result"},
		{"unexpected finish reason", fmt.Errorf("wrap: %w", core.ErrUnexpectedFinishReason), http.StatusBadGateway, "unexpected_finish_reason"},
		{"exceeded max rounds", fmt.Errorf("wrap: %w", core.ErrExceededMaxRounds), http.StatusBadGateway, "exceeded_max_rounds"},
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
		{"provider outage", fmt.Errorf("connection refused"), http.StatusServiceUnavailable, "provider_unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestFilter(&stubDetector{err: tc.err}).Routes()

			req := httptest.NewRequest(http.MethodPost, "/v1/detect", strings.NewReader(sampleEmail))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantKind, body.Kind)
		})
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestFilter(&stubDetector{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
