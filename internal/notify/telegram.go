package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/config"
)

// TelegramClient sends messages through the Telegram bot API.
type TelegramClient struct {
	baseURL  string
	botToken string
	http     *http.Client
}

// NewTelegramClient creates a Telegram bot sender.
func NewTelegramClient(cfg config.TelegramConfig) *TelegramClient {
	return &TelegramClient{
		baseURL:  cfg.BaseURL,
		botToken: cfg.BotToken,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers text to the given chat id.
func (c *TelegramClient) Send(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call telegram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %s", resp.Status)
	}

	return nil
}
