package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"MA5Sentinel/internal/model"
)

// StatusProvider exposes the last published scheduler status.
type StatusProvider interface {
	Status() model.Status
}

// ListenForCommands starts a goroutine that polls for Telegram updates and answers
// bot commands. It returns immediately; the goroutine stops when ctx is cancelled.
func (t *Telegram) ListenForCommands(ctx context.Context, status StatusProvider) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				t.api.StopReceivingUpdates()
				t.log.Info().Msg("telegram polling stopped")
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil || !update.Message.IsCommand() {
					continue
				}
				// Only the configured chat may query the monitor.
				if update.Message.Chat.ID != t.chatID {
					continue
				}
				cmd := update.Message.Command()
				t.log.Info().Str("command", cmd).Msg("received command")
				if reply := Reply(cmd, status); reply != "" {
					if err := t.sendTo(update.Message.Chat.ID, reply); err != nil {
						t.log.Error().Err(err).Msg("send reply")
					}
				}
			}
		}
	}()
}

// Reply builds the answer to a bot command; unknown commands get a help line.
func Reply(command string, status StatusProvider) string {
	switch strings.ToLower(command) {
	case "ping":
		return "pong"
	case "status":
		if status == nil {
			return "status unavailable"
		}
		return FormatStatus(status.Status())
	default:
		return "commands: /status /ping"
	}
}
