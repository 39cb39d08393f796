package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/config"
)

// WhatsAppClient sends WhatsApp messages through the Twilio REST API.
type WhatsAppClient struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
}

// NewWhatsAppClient creates a Twilio-backed WhatsApp sender.
func NewWhatsAppClient(cfg config.TwilioConfig) *WhatsAppClient {
	return &WhatsAppClient{
		baseURL:    cfg.BaseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers body to the given whatsapp:+E164 destination.
func (c *WhatsAppClient) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call twilio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned status %s", resp.Status)
	}

	return nil
}
