package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/rocketscienceinc/tictactoe-promo/internal/config"
)

var ErrUnexpectedStatus = errors.New("unexpected telegram response status")

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Telegram delivers game outcomes to a chat through the Bot API.
type Telegram struct {
	logger *slog.Logger
	client *http.Client

	apiURL   string
	botToken string
	chatID   string
	timeout  time.Duration
	enabled  bool
}

func NewTelegram(logger *slog.Logger, conf config.Telegram) *Telegram {
	return &Telegram{
		logger: logger.With("component", "telegram"),
		client: &http.Client{},

		apiURL:   conf.APIURL,
		botToken: conf.BotToken,
		chatID:   conf.ChatID,
		timeout:  conf.Timeout,
		enabled:  conf.IsConfigured(),
	}
}

// Notify - sends message in the background. It never blocks the caller and
// never reports failure; problems are only logged.
func (that *Telegram) Notify(ctx context.Context, message string) {
	log := that.logger.With("method", "Notify")

	if !that.enabled {
		log.Info("telegram bot is not configured", "message", message)
		return
	}

	ctx = context.WithoutCancel(ctx)

	go func() {
		sendCtx, cancel := context.WithTimeout(ctx, that.timeout)
		defer cancel()

		if err := that.Send(sendCtx, message); err != nil {
			log.Error("failed to send telegram message", "error", err)
			return
		}

		log.Debug("telegram message sent")
	}()
}

// Send - posts message to the configured chat and waits for the answer.
func (that *Telegram) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: that.chatID, Text: message})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", that.apiURL, that.botToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.client.Do(req)
	if err != nil {
		// the request URL carries the bot token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return nil
}
