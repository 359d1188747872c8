package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPScanner is an implementation of the core.URLScanner interface backed
// by an external reputation service: it POSTs the URL as JSON and expects a
// JSON verdict back.
type HTTPScanner struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

type scanRequest struct {
	URL string `json:"url"`
}

type scanResponse struct {
	Verdict string `json:"verdict"`
}

// NewHTTPScanner creates a scanner against the given reputation service
// endpoint
func NewHTTPScanner(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPScanner {
	return &HTTPScanner{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Scan asks the reputation service for a verdict on the URL
func (s *HTTPScanner) Scan(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(scanRequest{URL: url})
	if err != nil {
		return "", fmt.Errorf("failed to marshal scan request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reputation service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("reputation service returned %d: %s", resp.StatusCode, string(data))
	}

	var result scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode scan response: %w", err)
	}
	if result.Verdict == "" {
		return "", fmt.Errorf("reputation service returned an empty verdict")
	}

	s.logger.Debug("Reputation service scan",
		zap.String("url", url),
		zap.String("verdict", result.Verdict))
	return result.Verdict, nil
}
