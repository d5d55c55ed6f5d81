package notifier

import (
	"fmt"
	"strings"

	"MA5Sentinel/internal/model"
)

// FormatAlert renders an alert into a notification title and body.
func FormatAlert(a model.Alert) (title, body string) {
	name := a.Name
	if name == "" {
		name = a.Symbol
	}
	switch a.Kind {
	case model.AlertSell:
		title = fmt.Sprintf("%s sell alert", name)
		body = fmt.Sprintf("%s price %.2f: %s", a.Symbol, a.Price, a.Reason)
	default:
		title = fmt.Sprintf("%s trigger", name)
		body = fmt.Sprintf("%s price %.2f in MA5 band [%.2f, %.2f]", a.Symbol, a.Price, a.Lower, a.Upper)
	}
	return title, body
}

// FormatStatus renders a scheduler status for the /status command.
func FormatStatus(s model.Status) string {
	var b strings.Builder
	state := "CLOSED"
	if s.MarketOpen {
		state = "OPEN"
	}
	b.WriteString(fmt.Sprintf("<b>MA5 Sentinel</b> | market %s", state))
	if s.MarketOpen && s.Window != "" {
		b.WriteString(fmt.Sprintf(" (%s)", s.Window))
	}
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("watched: %d | held: %d\n", s.Watched, s.Held))
	b.WriteString(fmt.Sprintf("alerts sent: %d\n", s.AlertsSent))
	if !s.LastPass.IsZero() {
		b.WriteString(fmt.Sprintf("last pass: %s\n", s.LastPass.Format("2006-01-02 15:04:05")))
	}
	if !s.MarketOpen && !s.NextOpen.IsZero() {
		b.WriteString(fmt.Sprintf("next open: %s\n", s.NextOpen.Format("2006-01-02 15:04")))
	}
	return b.String()
}
