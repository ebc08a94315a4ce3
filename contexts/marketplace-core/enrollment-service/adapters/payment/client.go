package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainerrors "wellagora/contexts/marketplace-core/enrollment-service/domain/errors"
	"wellagora/contexts/marketplace-core/enrollment-service/ports"
)

// Client talks to the hosted checkout provider over HTTP. The provider issues
// a redirect URL keyed by our checkout reference; settlement comes back later
// on the webhook path, never through this client.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type createSessionRequest struct {
	Reference  string            `json:"reference"`
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	SuccessURL string            `json:"success_url,omitempty"`
	CancelURL  string            `json:"cancel_url,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type createSessionResponse struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url"`
}

func (c *Client) CreateCheckout(ctx context.Context, input ports.CreateCheckoutInput) (ports.CheckoutSession, error) {
	if c == nil || c.baseURL == "" {
		return ports.CheckoutSession{}, domainerrors.ErrPaymentUnavailable
	}

	payload, err := json.Marshal(createSessionRequest{
		Reference:  input.Reference,
		Amount:     input.Amount,
		Currency:   input.Currency,
		SuccessURL: input.SuccessURL,
		CancelURL:  input.CancelURL,
		Metadata:   input.Metadata,
	})
	if err != nil {
		return ports.CheckoutSession{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(payload))
	if err != nil {
		return ports.CheckoutSession{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("checkout session request failed",
			"event", "checkout_provider_unreachable",
			"module", "marketplace-core/enrollment-service",
			"layer", "adapter",
			"reference", input.Reference,
			"error", err.Error(),
		)
		return ports.CheckoutSession{}, domainerrors.ErrPaymentUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Error("checkout session rejected",
			"event", "checkout_provider_rejected",
			"module", "marketplace-core/enrollment-service",
			"layer", "adapter",
			"reference", input.Reference,
			"status_code", resp.StatusCode,
		)
		return ports.CheckoutSession{}, fmt.Errorf("checkout provider: status=%d: %w", resp.StatusCode, domainerrors.ErrPaymentUnavailable)
	}

	var session createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return ports.CheckoutSession{}, err
	}
	reference := session.Reference
	if reference == "" {
		reference = input.Reference
	}
	return ports.CheckoutSession{
		Reference:   reference,
		RedirectURL: session.RedirectURL,
	}, nil
}
