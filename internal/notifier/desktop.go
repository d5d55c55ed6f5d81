package notifier

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// Desktop shows an OS notification (toast on Windows, notification center on macOS, notify-send on Linux).
type Desktop struct {
	AppName string
	send    func(title, body string, icon any) error
}

// NewDesktop creates a desktop notifier; appName labels the notifications.
func NewDesktop(appName string) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Desktop{AppName: appName, send: beeep.Notify}
}

// Name identifies the channel in logs and metrics.
func (d *Desktop) Name() string { return "desktop" }

// Notify shows one notification with the given title and body.
func (d *Desktop) Notify(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.send(title, body, ""); err != nil {
		return fmt.Errorf("desktop notify: %w", err)
	}
	return nil
}
