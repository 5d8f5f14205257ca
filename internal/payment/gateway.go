// Package payment abstracts the external card gateway: creating hosted
// checkout sessions and verifying the signed confirmation events it sends
// back. Amounts cross this boundary in minor units (cents); everything inside
// the application stays decimal.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LineItem struct {
	Name        string `json:"name"`
	AmountMinor int64  `json:"amountMinor"`
	Quantity    int64  `json:"quantity"`
}

// CheckoutParams describes one hosted checkout session. Metadata is echoed
// back verbatim on the confirmation event and is the only state the webhook
// side can trust, so it must carry everything reconciliation needs.
type CheckoutParams struct {
	LineItems  []LineItem        `json:"lineItems"`
	SuccessURL string            `json:"successUrl"`
	CancelURL  string            `json:"cancelUrl"`
	Metadata   map[string]string `json:"metadata"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
}

// Client talks to the gateway's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	// The gateway deduplicates session creation on this key if we retry.
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("gateway response missing session id or url")
	}
	return &session, nil
}

// MinorUnits converts a decimal amount to gateway cents. This is the single
// place rounding happens.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
