// Package settlement contains the HTTP adapter to the payment subsystem
// and a mock for tests.
package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	coresettlement "github.com/oficiosya/dispatch/core/settlement"
	"github.com/oficiosya/dispatch/infra/logger"
)

// Config defines the settlement service endpoint.
type Config struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// HTTPGateway talks to the settlement service over JSON HTTP.
type HTTPGateway struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     logger.Logger
}

// NewHTTPGateway creates an HTTPGateway.
func NewHTTPGateway(cfg Config) *HTTPGateway {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	return &HTTPGateway{
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		log:     logger.New("settlement-client"),
	}
}

type openEscrowRequest struct {
	RequestID string    `json:"request_id"`
	Amount    float64   `json:"amount"`
	Deadline  time.Time `json:"deadline"`
}

type openEscrowResponse struct {
	EscrowID string `json:"escrow_id"`
}

// OpenEscrow creates a held payment and returns its identifier.
func (g *HTTPGateway) OpenEscrow(ctx context.Context, requestID string, amount float64, deadline time.Time) (string, error) {
	var resp openEscrowResponse
	err := g.post(ctx, "/escrows", openEscrowRequest{
		RequestID: requestID,
		Amount:    amount,
		Deadline:  deadline,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.EscrowID, nil
}

// ReleaseEscrow releases a held payment to the professional.
func (g *HTTPGateway) ReleaseEscrow(ctx context.Context, escrowID string) error {
	return g.post(ctx, fmt.Sprintf("/escrows/%s/release", escrowID), struct{}{}, nil)
}

func (g *HTTPGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal settlement request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build settlement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, coresettlement.ErrUnavailable)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			g.log.Warnf("close settlement response body: %v", err)
		}
	}()
	if res.StatusCode >= 500 {
		return fmt.Errorf("%s: status %d: %w", path, res.StatusCode, coresettlement.ErrUnavailable)
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("settlement rejected %s: status %d", path, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode settlement response: %w", err)
		}
	}
	return nil
}
