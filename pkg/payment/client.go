package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wieeerzbickim/community-feast/pkg/utils"
	"go.uber.org/zap"
)

// ErrUnavailable marks transient provider failures so callers can tell them
// apart from validation errors. Never retried for session creation.
var ErrUnavailable = errors.New("payment provider unavailable")

type LineItem struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
}

type CheckoutRequest struct {
	LineItems  []LineItem        `json:"line_items"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata"`
}

type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// Client wraps the serverless checkout function in front of the payment
// processor. Confirmation comes back asynchronously on the payment_events
// topic, not through this client.
type Client interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
	cb      *gobreaker.CircuitBreaker
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) Client {
	settings := gobreaker.Settings{
		Name:        "PaymentProvider",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

func (c *httpClient) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	session, err := utils.ExecuteWithBreaker(c.cb, func() (*CheckoutSession, error) {
		return c.createSession(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, ErrUnavailable
		}

		return nil, err
	}

	return session, nil
}

func (c *httpClient) createSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout-sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("payment provider request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("checkout session rejected: status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	return &session, nil
}
