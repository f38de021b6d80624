// Package kyc adapts the external verification service to the plan
// registry's purchase gate.
package kyc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"ascend/pkg/domain"
	"ascend/pkg/platform/circuit"
)

// ErrUnavailable is returned while the verification service is failing.
var ErrUnavailable = errors.New("verification service unavailable")

// StaticChecker answers every lookup with the same verdict. Used in
// development and tests when no verification service is configured.
type StaticChecker struct {
	Verified bool
}

func (c StaticChecker) IsVerified(context.Context, domain.ParticipantID) (bool, error) {
	return c.Verified, nil
}

// HTTPChecker asks the verification service whether a participant passed
// KYC. Calls are guarded by a circuit breaker so a failing service rejects
// purchases quickly instead of stacking timeouts.
type HTTPChecker struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewHTTPChecker(baseURL string, timeout time.Duration, breaker *circuit.Breaker, logger *slog.Logger) *HTTPChecker {
	return &HTTPChecker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  logger,
	}
}

type verificationResponse struct {
	Verified bool `json:"verified"`
}

// IsVerified calls GET {base}/participants/{id}/verification. A 404 means
// the participant never started verification.
func (c *HTTPChecker) IsVerified(ctx context.Context, id domain.ParticipantID) (bool, error) {
	if !c.breaker.Allow() {
		return false, ErrUnavailable
	}

	endpoint, err := url.JoinPath(c.baseURL, "participants", id.String(), "verification")
	if err != nil {
		return false, fmt.Errorf("build verification url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("create verification request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.recordFailure(ctx, err)
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.breaker.RecordSuccess()
		return false, nil
	case resp.StatusCode >= 500:
		c.recordFailure(ctx, fmt.Errorf("status %d", resp.StatusCode))
		return false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.breaker.RecordSuccess()
		return false, fmt.Errorf("verification service returned status %d", resp.StatusCode)
	}

	var body verificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode verification response: %w", err)
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "verification service recovered", "breaker", c.breaker.Name())
	}
	return body.Verified, nil
}

func (c *HTTPChecker) recordFailure(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "verification service failing, breaker opened",
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
}
