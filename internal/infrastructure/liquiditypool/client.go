package liquiditypool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/agrifin/backend/internal/domain/shared/valueobject"
	"github.com/agrifin/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 1 * 1024 * 1024 // 1MB max response

// Client implements LiquidityPoolService over the pool subsystem's HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a liquidity pool client from collaborator configuration
func NewClient(cfg config.CollaboratorsConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.LiquidityPoolURL,
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

// FindAllocationCandidate returns the pool able to fund the amount, or nil
// when no pool qualifies
func (c *Client) FindAllocationCandidate(ctx context.Context, amount decimal.Decimal, currency valueobject.Currency) (*advance.PoolCandidate, error) {
	query := url.Values{}
	query.Set("amount", amount.String())
	query.Set("currency", string(currency))
	endpoint := fmt.Sprintf("%s/api/v1/pools/allocation-candidate?%s", c.baseURL, query.Encode())

	body, status, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || status == http.StatusNoContent {
		return nil, nil
	}

	var candidate advance.PoolCandidate
	if err := json.Unmarshal(body, &candidate); err != nil {
		return nil, fmt.Errorf("liquidity pool: failed to decode candidate: %w", err)
	}
	return &candidate, nil
}

// AllocateCapital reserves capital for a contract in the chosen pool
func (c *Client) AllocateCapital(ctx context.Context, req advance.AllocationRequest) (*advance.AllocationResult, error) {
	endpoint := fmt.Sprintf("%s/api/v1/allocations", c.baseURL)
	body, _, err := c.doRequest(ctx, http.MethodPost, endpoint, req)
	if err != nil {
		return nil, err
	}

	var result advance.AllocationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("liquidity pool: failed to decode allocation result: %w", err)
	}
	return &result, nil
}

// ReleaseCapital returns allocated capital to the pool after a repayment
func (c *Client) ReleaseCapital(ctx context.Context, req advance.ReleaseRequest) error {
	endpoint := fmt.Sprintf("%s/api/v1/allocations/release", c.baseURL)
	_, _, err := c.doRequest(ctx, http.MethodPost, endpoint, req)
	return err
}

type defaultNotification struct {
	ContractID       uuid.UUID       `json:"contract_id"`
	PoolID           uuid.UUID       `json:"pool_id"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	RecoveredAmount  decimal.Decimal `json:"recovered_amount"`
}

// HandleDefault notifies the pool subsystem that a contract was written off
func (c *Client) HandleDefault(ctx context.Context, contractID, poolID uuid.UUID, remainingBalance, recoveredAmount decimal.Decimal) error {
	endpoint := fmt.Sprintf("%s/api/v1/allocations/default", c.baseURL)
	_, _, err := c.doRequest(ctx, http.MethodPost, endpoint, defaultNotification{
		ContractID:       contractID,
		PoolID:           poolID,
		RemainingBalance: remainingBalance,
		RecoveredAmount:  recoveredAmount,
	})
	return err
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("liquidity pool: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("liquidity pool: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("liquidity pool: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("liquidity pool: failed to read response: %w", err)
	}

	// 404 on candidate lookup means no pool qualifies, not an error
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return nil, resp.StatusCode, fmt.Errorf("liquidity pool: HTTP %d: %s", resp.StatusCode, body)
	}
	return body, resp.StatusCode, nil
}

// Ensure Client implements LiquidityPoolService
var _ advance.LiquidityPoolService = (*Client)(nil)
