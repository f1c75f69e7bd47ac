package liveness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ridgeline-labs/ridgeline/internal/retry"
)

const (
	defaultTimeout  = 10 * time.Second
	maxAttempts     = 3
	baseRetryDelay  = 200 * time.Millisecond
	maxResponseSize = 1 << 16
)

// HTTPScorer calls an external classifier service. The service receives the
// raw sample bytes and answers {"liveness_score": <float>}.
type HTTPScorer struct {
	url    string
	client *http.Client
}

// NewHTTPScorer creates a scorer for the classifier at url.
func NewHTTPScorer(url string) *HTTPScorer {
	return &HTTPScorer{
		url: url,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type scoreResponse struct {
	LivenessScore float64 `json:"liveness_score"`
}

// Score posts the sample to the classifier. Transient failures (network
// errors, 5xx) are retried with backoff; 4xx responses are permanent.
func (s *HTTPScorer) Score(ctx context.Context, sample []byte) (float64, error) {
	var score float64

	err := retry.Do(ctx, maxAttempts, baseRetryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(sample))
		if err != nil {
			return retry.Permanent(fmt.Errorf("build classifier request: %w", err))
		}
		req.Header.Set("Content-Type", "application/octet-stream")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("call classifier: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return fmt.Errorf("read classifier response: %w", err)
		}

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("classifier returned %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return retry.Permanent(fmt.Errorf("classifier rejected sample: %d", resp.StatusCode))
		}

		var parsed scoreResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return retry.Permanent(fmt.Errorf("decode classifier response: %w", err))
		}
		score = parsed.LivenessScore
		return nil
	})
	if err != nil {
		return 0, err
	}

	// The risk engine clamps anyway; keep the contract here too.
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
