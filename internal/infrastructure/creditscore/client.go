package creditscore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 1 * 1024 * 1024 // 1MB max response

// Client implements CreditScoringService over the scoring subsystem's HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a credit scoring client from collaborator configuration
func NewClient(cfg config.CollaboratorsConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.CreditScoringURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithHTTPClient creates a client with a custom HTTP client.
// Useful for testing.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// CalculateScore fetches the current credit assessment for a producer
func (c *Client) CalculateScore(ctx context.Context, producerID uuid.UUID) (*advance.CreditAssessment, error) {
	url := fmt.Sprintf("%s/api/v1/producers/%s/score", c.baseURL, producerID)
	body, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var assessment advance.CreditAssessment
	if err := json.Unmarshal(body, &assessment); err != nil {
		return nil, fmt.Errorf("credit scoring: failed to decode assessment: %w", err)
	}
	return &assessment, nil
}

type eligibilityRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID uuid.UUID       `json:"order_id"`
}

// CheckEligibility asks the scoring subsystem whether the producer may take
// an advance of the given amount against the order
func (c *Client) CheckEligibility(ctx context.Context, producerID uuid.UUID, amount decimal.Decimal, orderID uuid.UUID) (*advance.EligibilityResult, error) {
	url := fmt.Sprintf("%s/api/v1/producers/%s/eligibility", c.baseURL, producerID)
	body, err := c.doRequest(ctx, http.MethodPost, url, eligibilityRequest{
		Amount:  amount,
		OrderID: orderID,
	})
	if err != nil {
		return nil, err
	}

	var result advance.EligibilityResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("credit scoring: failed to decode eligibility: %w", err)
	}
	return &result, nil
}

// RecalculateScore asks the scoring subsystem to refresh the producer's score
// after a terminal repayment outcome. Fire-and-forget from the caller's view.
func (c *Client) RecalculateScore(ctx context.Context, producerID uuid.UUID) error {
	url := fmt.Sprintf("%s/api/v1/producers/%s/score/recalculate", c.baseURL, producerID)
	_, err := c.doRequest(ctx, http.MethodPost, url, nil)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("credit scoring: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("credit scoring: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credit scoring: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("credit scoring: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("credit scoring: HTTP %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// Ensure Client implements CreditScoringService
var _ advance.CreditScoringService = (*Client)(nil)
