package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds the Telegram bot settings.
type Config struct {
	APIURL   string
	BotToken string
	ChatID   string
}

// TelegramNotifier implements core.Notifier over the Telegram bot API. Every
// message carries a monitor header naming the watched server.
type TelegramNotifier struct {
	httpClient *http.Client
	cfg        Config
	header     string
	logger     *zap.Logger
}

// NewTelegramNotifier creates a new notifier for the given monitored server.
func NewTelegramNotifier(cfg Config, serverName string, logger *zap.Logger) *TelegramNotifier {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cfg:        cfg,
		header:     fmt.Sprintf("*Zimbra queue monitor* %s", serverName),
		logger:     logger,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send delivers text to the operator channel.
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    n.cfg.ChatID,
		Text:      n.header + "\n\n" + text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.cfg.APIURL, n.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram request returned %d: %s", resp.StatusCode, detail)
	}

	n.logger.Debug("Delivered telegram notification", zap.Int("length", len(text)))
	return nil
}
