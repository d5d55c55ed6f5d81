package notifier

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// botSender is the subset of *tgbotapi.BotAPI used for sending.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends messages via the Telegram Bot API.
type Telegram struct {
	bot        botSender
	api        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewTelegram creates a notifier with optional proxy support. It contacts the
// Bot API once to validate the token.
func NewTelegram(botToken, chatID, proxyURL string, maxRetries int, retryDelay time.Duration, log zerolog.Logger) (*Telegram, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{Timeout: 75 * time.Second, Transport: transport}

	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Telegram{
		bot:        bot,
		api:        bot,
		chatID:     id,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		log:        log,
	}, nil
}

// Name identifies the channel in logs and metrics.
func (t *Telegram) Name() string { return "telegram" }

// Notify sends the title in bold followed by the body.
func (t *Telegram) Notify(ctx context.Context, title, body string) error {
	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(title), html.EscapeString(body))
	return t.SendWithRetry(ctx, text, t.maxRetries)
}

// Send sends an HTML message to the configured chat.
func (t *Telegram) Send(text string) error {
	return t.sendTo(t.chatID, text)
}

func (t *Telegram) sendTo(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// sendCtx returns when ctx is done even if the Bot API call is still in flight.
func (t *Telegram) sendCtx(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- t.Send(text) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *Telegram) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.sendCtx(ctx, text)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.retryDelay * time.Duration(1<<uint(i))
		t.log.Warn().Err(err).Int("attempt", i+1).Int("of", maxRetries+1).Dur("backoff", backoff).Msg("telegram send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}
