package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/dto"
)

const (
	plaidSandboxURL     = "https://sandbox.plaid.com"
	plaidDevelopmentURL = "https://development.plaid.com"
	plaidProductionURL  = "https://production.plaid.com"

	plaidAPIVersion           = "2020-09-14"
	plaidDateLayout           = "2006-01-02"
	plaidTransactionsPageSize = 500
)

var (
	ErrPlaidNotConfigured     = errors.New("plaid: client id and secret are required")
	ErrPlaidInvalidToken      = errors.New("plaid: invalid or expired token")
	ErrPlaidRateLimited       = errors.New("plaid: rate limit exceeded")
	ErrPlaidItemLoginRequired = errors.New("plaid: item requires user re-authentication")
	ErrPlaidUnavailable       = errors.New("plaid: provider unavailable")
	ErrPlaidRequestFailed     = errors.New("plaid: request rejected")
)

// PlaidAPIError carries the provider error body. It unwraps to one of the
// ErrPlaid sentinels.
type PlaidAPIError struct {
	StatusCode   int
	ErrorType    string
	ErrorCode    string
	ErrorMessage string
	RequestID    string
	kind         error
}

func (e *PlaidAPIError) Error() string {
	return fmt.Sprintf("plaid API error %d: %s (type=%s, code=%s, request_id=%s)",
		e.StatusCode, e.ErrorMessage, e.ErrorType, e.ErrorCode, e.RequestID)
}

func (e *PlaidAPIError) Unwrap() error {
	return e.kind
}

// PlaidTransport stamps every request with the JSON content type and the
// pinned API version.
type PlaidTransport struct {
	base http.RoundTripper
}

func (t *PlaidTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Plaid-Version", plaidAPIVersion)

	return t.base.RoundTrip(req)
}

// PlaidClient is a minimal read-only Plaid HTTP client
type PlaidClient struct {
	baseURL  string
	clientID string
	// secret is never logged
	secret      string
	client      *http.Client
	breaker     CircuitBreakerInterface
	metrics     MetricsRecorderInterface
	auditLogger AuditLoggerInterface
}

// PlaidBaseURL resolves the API host for an environment name
func PlaidBaseURL(environment string) string {
	switch strings.ToLower(environment) {
	case "production":
		return plaidProductionURL
	case "development":
		return plaidDevelopmentURL
	default:
		return plaidSandboxURL
	}
}

func NewPlaidClient(
	cfg *config.PlaidConfig,
	breaker CircuitBreakerInterface,
	metrics MetricsRecorderInterface,
	auditLogger AuditLoggerInterface,
) (PlaidClientInterface, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, ErrPlaidNotConfigured
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = PlaidBaseURL(cfg.Environment)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &PlaidClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: cfg.ClientID,
		secret:   cfg.Secret,
		client: &http.Client{
			Transport: &PlaidTransport{base: http.DefaultTransport},
			Timeout:   timeout,
		},
		breaker:     breaker,
		metrics:     metrics,
		auditLogger: auditLogger,
	}, nil
}

func (c *PlaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (*dto.PlaidExchangeResponse, error) {
	body := map[string]interface{}{
		"public_token": publicToken,
	}
	return doPlaidPost[dto.PlaidExchangeResponse](ctx, c, "/item/public_token/exchange", body)
}

func (c *PlaidClient) GetAccounts(ctx context.Context, accessToken string) ([]dto.PlaidAccount, error) {
	body := map[string]interface{}{
		"access_token": accessToken,
	}
	resp, err := doPlaidPost[dto.PlaidAccountsResponse](ctx, c, "/accounts/get", body)
	if err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// GetTransactions pages through /transactions/get until the reported total has
// been read. Accounts and item come from the first page.
func (c *PlaidClient) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) (*dto.PlaidTransactionsResponse, error) {
	var result *dto.PlaidTransactionsResponse

	for {
		offset := 0
		if result != nil {
			offset = len(result.Transactions)
		}

		body := map[string]interface{}{
			"access_token": accessToken,
			"start_date":   start.Format(plaidDateLayout),
			"end_date":     end.Format(plaidDateLayout),
			"options": dto.PlaidTransactionsOptions{
				Count:  plaidTransactionsPageSize,
				Offset: offset,
			},
		}

		page, err := doPlaidPost[dto.PlaidTransactionsResponse](ctx, c, "/transactions/get", body)
		if err != nil {
			return nil, err
		}

		if result == nil {
			result = page
		} else {
			result.Transactions = append(result.Transactions, page.Transactions...)
		}

		if len(page.Transactions) == 0 || len(result.Transactions) >= page.TotalTransactions {
			return result, nil
		}
	}
}

func doPlaidPost[Resp any](ctx context.Context, c *PlaidClient, path string, reqBody map[string]interface{}) (*Resp, error) {
	if c.breaker.IsOpen() {
		c.metrics.IncrementCounter("provider.request", map[string]string{"path": path, "status": "circuit_open"})
		return nil, fmt.Errorf("%w: %w", ErrPlaidUnavailable, ErrCircuitBreakerOpen)
	}

	reqBody["client_id"] = c.clientID
	reqBody["secret"] = c.secret

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		c.metrics.IncrementCounter("provider.request", map[string]string{"path": path, "status": "error"})
		c.auditLogger.LogProviderRequestFailed(ctx, "plaid", path, 0, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrPlaidUnavailable, err)
	}
	defer resp.Body.Close()

	c.metrics.IncrementCounter("provider.request", map[string]string{"path": path, "status": strconv.Itoa(resp.StatusCode)})

	if resp.StatusCode != http.StatusOK {
		apiErr := parsePlaidError(resp)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		c.auditLogger.LogProviderRequestFailed(ctx, "plaid", path, resp.StatusCode, apiErr.Error())
		return nil, apiErr
	}

	var result Resp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.breaker.RecordSuccess()
	return &result, nil
}

func parsePlaidError(resp *http.Response) *PlaidAPIError {
	body, _ := io.ReadAll(resp.Body)

	apiErr := &PlaidAPIError{StatusCode: resp.StatusCode}

	var errResp dto.PlaidErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorType != "" {
		apiErr.ErrorType = errResp.ErrorType
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.ErrorMessage = errResp.ErrorMessage
		apiErr.RequestID = errResp.RequestID
	} else {
		apiErr.ErrorMessage = strings.TrimSpace(string(body))
	}

	switch {
	case apiErr.ErrorType == "INVALID_ACCESS_TOKEN",
		apiErr.ErrorCode == "INVALID_ACCESS_TOKEN",
		apiErr.ErrorCode == "INVALID_PUBLIC_TOKEN":
		apiErr.kind = ErrPlaidInvalidToken
	case apiErr.ErrorType == "RATE_LIMIT_EXCEEDED", resp.StatusCode == http.StatusTooManyRequests:
		apiErr.kind = ErrPlaidRateLimited
	case apiErr.ErrorCode == "ITEM_LOGIN_REQUIRED":
		apiErr.kind = ErrPlaidItemLoginRequired
	case apiErr.ErrorType == "API_ERROR",
		apiErr.ErrorType == "INSTITUTION_ERROR",
		resp.StatusCode >= http.StatusInternalServerError:
		apiErr.kind = ErrPlaidUnavailable
	default:
		apiErr.kind = ErrPlaidRequestFailed
	}

	return apiErr
}
