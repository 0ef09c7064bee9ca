package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers scan alerts to a Telegram chat through the Bot
// API. Alert text is sent as HTML so opportunity lines render verbatim.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot token (from
// @BotFather) and target chat, group, or channel ID.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  telegramAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	prefix := ""
	switch alert.Level {
	case AlertWarning:
		prefix = "⚠️ "
	case AlertCritical:
		prefix = "🚨 "
	}

	body, err := json.Marshal(map[string]any{
		"chat_id": t.chatID,
		"text": fmt.Sprintf("%s<b>%s</b>\n<pre>%s</pre>",
			prefix, html.EscapeString(alert.Title), html.EscapeString(alert.Message)),
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("telegram: decode response: %w", err)
	}
	if !status.OK {
		return fmt.Errorf("telegram: api error: %s", status.Description)
	}

	log.Printf("[telegram] delivered %q to chat %s", alert.Title, t.chatID)
	return nil
}
