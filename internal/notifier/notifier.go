// Package notifier delivers alert titles and bodies to the user.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Notifier sends one message. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
	Name() string
}

// Multi fans a message out to every channel and joins their errors.
type Multi struct {
	channels []Notifier
	log      zerolog.Logger
}

// NewMulti builds a fan-out notifier. With no channels it falls back to the log.
func NewMulti(log zerolog.Logger, channels ...Notifier) *Multi {
	if len(channels) == 0 {
		channels = []Notifier{NewLog(log)}
	}
	return &Multi{channels: channels, log: log}
}

func (m *Multi) Name() string { return "multi" }

// Notify tries every channel even when an earlier one fails.
func (m *Multi) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, ch := range m.channels {
		if err := ch.Notify(ctx, title, body); err != nil {
			m.log.Warn().Err(err).Str("channel", ch.Name()).Msg("notification failed")
			errs = append(errs, &ChannelError{Channel: ch.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// Channels returns the names of the configured channels.
func (m *Multi) Channels() []string {
	names := make([]string, len(m.channels))
	for i, ch := range m.channels {
		names[i] = ch.Name()
	}
	return names
}

// ChannelError tags a delivery failure with the channel that produced it.
type ChannelError struct {
	Channel string
	Err     error
}

func (e *ChannelError) Error() string { return fmt.Sprintf("%s: %v", e.Channel, e.Err) }
func (e *ChannelError) Unwrap() error { return e.Err }

// Log writes the message to the logger. Used when no other channel is available.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log { return &Log{log: log} }

func (l *Log) Name() string { return "log" }

func (l *Log) Notify(_ context.Context, title, body string) error {
	l.log.Info().Str("title", title).Str("body", body).Msg("notification")
	return nil
}
