// Package payment holds the Mercado Pago gateway client.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/config"
)

// Item is one line of a checkout preference.
type Item struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// BackURLs tells the gateway where to send the buyer after checkout.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// Preference is the checkout preference sent to the gateway.
type Preference struct {
	Items             []Item   `json:"items"`
	BackURLs          BackURLs `json:"back_urls"`
	AutoReturn        string   `json:"auto_return"`
	ExternalReference string   `json:"external_reference"`
	NotificationURL   string   `json:"notification_url,omitempty"`
}

// Payment is the subset of the gateway's payment resource the webhook needs.
type Payment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

// Client talks to the Mercado Pago REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg config.MercadoPagoConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.AccessToken,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
			Timeout: 15 * time.Second,
		},
	}
}

// CreatePreference registers a checkout preference and returns its id.
func (c *Client) CreatePreference(ctx context.Context, pref Preference) (string, error) {
	body, err := json.Marshal(pref)
	if err != nil {
		return "", fmt.Errorf("failed to encode preference: %w", err)
	}

	url := c.baseURL + "/checkout/preferences"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("payment gateway returned status %s: %s", resp.Status, readBody(resp.Body))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode preference response: %w", err)
	}

	return created.ID, nil
}

// Payment fetches a payment resource by id.
func (c *Client) Payment(ctx context.Context, id string) (*Payment, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment gateway returned status %s: %s", resp.Status, readBody(resp.Body))
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}

	return &payment, nil
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
