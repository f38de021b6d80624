// Package gateway adapts the external payment service to the payout
// workflow's transfer call.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"ascend/internal/payout/models"
	"ascend/pkg/platform/circuit"
)

// SandboxGateway accepts every transfer without moving money. Used in
// development when no payment service is configured.
type SandboxGateway struct{}

func (SandboxGateway) ExecuteTransfer(_ context.Context, t models.Transfer) (models.Receipt, error) {
	return models.Receipt{Reference: "sandbox-" + t.RequestID.String()}, nil
}

// HTTPGateway posts transfers to the payment service. The payout request id
// is sent as the idempotency key, so retrying a transfer never pays twice.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration, breaker *circuit.Breaker, logger *slog.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  logger,
	}
}

type transferRequest struct {
	Reference string `json:"reference"`
	Account   string `json:"account"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

type transferResponse struct {
	Reference string `json:"reference"`
	Error     string `json:"error"`
}

// ExecuteTransfer calls POST {base}/transfers. 5xx responses and transport
// errors are ErrGatewayUnavailable; other non-2xx responses are rejections.
func (g *HTTPGateway) ExecuteTransfer(ctx context.Context, t models.Transfer) (models.Receipt, error) {
	if !g.breaker.Allow() {
		return models.Receipt{}, fmt.Errorf("%w: breaker %s open", models.ErrGatewayUnavailable, g.breaker.Name())
	}

	endpoint, err := url.JoinPath(g.baseURL, "transfers")
	if err != nil {
		return models.Receipt{}, fmt.Errorf("build transfer url: %w", err)
	}
	body, err := json.Marshal(transferRequest{
		Reference: t.RequestID.String(),
		Account:   t.Account,
		Amount:    t.Amount.Amount.StringFixedBank(t.Amount.Currency.MinorUnits()),
		Currency:  t.Amount.Currency.String(),
	})
	if err != nil {
		return models.Receipt{}, fmt.Errorf("encode transfer: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Receipt{}, fmt.Errorf("create transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", t.RequestID.String())
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.recordFailure(ctx, err)
		return models.Receipt{}, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var out transferResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &out)

	switch {
	case resp.StatusCode >= 500:
		g.recordFailure(ctx, fmt.Errorf("status %d", resp.StatusCode))
		return models.Receipt{}, fmt.Errorf("%w: status %d", models.ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		g.breaker.RecordSuccess()
		if out.Error == "" {
			out.Error = http.StatusText(resp.StatusCode)
		}
		return models.Receipt{}, fmt.Errorf("transfer declined with status %d: %s", resp.StatusCode, out.Error)
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "transfer gateway recovered", "breaker", g.breaker.Name())
	}
	if out.Reference == "" {
		return models.Receipt{}, fmt.Errorf("%w: response carried no reference", models.ErrGatewayUnavailable)
	}
	return models.Receipt{Reference: out.Reference}, nil
}

func (g *HTTPGateway) recordFailure(ctx context.Context, err error) {
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.logger.WarnContext(ctx, "transfer gateway failing, breaker opened",
			"breaker", g.breaker.Name(),
			"error", err,
		)
	}
}
