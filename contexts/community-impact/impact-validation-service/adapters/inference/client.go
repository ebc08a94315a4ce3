package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client calls the inference sidecar for coaching tips. Strictly best-effort:
// the caller bounds every request with a timeout and drops the tip on error.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type tipRequest struct {
	Category string  `json:"category"`
	ImpactKg float64 `json:"impact_kg"`
}

type tipResponse struct {
	Tip string `json:"tip"`
}

func (c *Client) GenerateTip(ctx context.Context, category string, impactKg float64) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("inference client not configured")
	}

	payload, err := json.Marshal(tipRequest{Category: category, ImpactKg: impactKg})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tips", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("inference tips: status=%d", resp.StatusCode)
	}

	var result tipResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Tip, nil
}
