package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "GATEWAY_BASE_URL", "GATEWAY_API_KEY", "HTTPS_PROXY", "SQLITE_PATH", "METRICS_ADDR"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Monitor.TickInterval != time.Second {
		t.Errorf("tick interval = %v", cfg.Monitor.TickInterval)
	}
	if cfg.Monitor.Tolerance != 0.02 {
		t.Errorf("tolerance = %v", cfg.Monitor.Tolerance)
	}
	if cfg.Monitor.BuyAlertInterval != 300*time.Second || cfg.Monitor.SellDebounce != 300*time.Second {
		t.Errorf("intervals = %v %v", cfg.Monitor.BuyAlertInterval, cfg.Monitor.SellDebounce)
	}
	if cfg.Monitor.WindowSize != 30 {
		t.Errorf("window size = %d", cfg.Monitor.WindowSize)
	}
	if cfg.Session.Timezone != "Asia/Shanghai" || cfg.Session.Weekdays != "1-5" {
		t.Errorf("session = %+v", cfg.Session)
	}
	if len(cfg.Session.Windows) != 3 || cfg.Session.Windows[0].Start != "09:15" {
		t.Errorf("windows = %+v", cfg.Session.Windows)
	}
	if !cfg.Notifier.Desktop {
		t.Error("desktop notifications should default on")
	}
	// No gateway URL yet.
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without gateway.base_url")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
watchlist_file: lists/watch.txt
gateway:
  base_url: http://localhost:8000
  timeout: 5s
session:
  timezone: UTC
  windows:
    - {name: morning, start: "09:30", end: "11:30"}
monitor:
  tolerance: 0.03
  sell_debounce: 10m
notifier:
  desktop: false
`)
	t.Setenv("GATEWAY_API_KEY", "secret")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.WatchlistFile != "lists/watch.txt" || cfg.HoldingsFile != "configs/holdings.txt" {
		t.Errorf("files = %s %s", cfg.WatchlistFile, cfg.HoldingsFile)
	}
	if cfg.Gateway.Timeout != 5*time.Second || cfg.Gateway.APIKey != "secret" {
		t.Errorf("gateway = %+v", cfg.Gateway)
	}
	if len(cfg.Session.Windows) != 1 || cfg.Session.Windows[0].Name != "morning" {
		t.Errorf("windows = %+v", cfg.Session.Windows)
	}
	if cfg.Monitor.Tolerance != 0.03 || cfg.Monitor.SellDebounce != 10*time.Minute {
		t.Errorf("monitor = %+v", cfg.Monitor)
	}
	if cfg.Notifier.Desktop {
		t.Error("desktop: false in file should win over the default")
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr)
	}
}

func TestValidateRejects(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad timezone", "session: {timezone: Mars/Olympus}", "timezone"},
		{"bad window time", `session: {windows: [{name: a, start: "9:75", end: "10:00"}]}`, "window a"},
		{"end before start", `session: {windows: [{name: a, start: "10:00", end: "09:00"}]}`, "not after"},
		{"unordered windows", `session: {windows: [{name: b, start: "13:00", end: "15:00"}, {name: a, start: "09:30", end: "11:30"}]}`, "starts before"},
		{"bad weekdays", "session: {weekdays: mon-xyz}", "schedule"},
		{"telegram without token", "notifier: {telegram: {enabled: true}}", "BotToken"},
		{"window size too large", "monitor: {window_size: 31}", "WindowSize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "gateway: {base_url: 'http://gw'}\n"+tt.yaml))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestTelegramTokenFromEnvEnables(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Notifier.Telegram.Enabled || cfg.Notifier.Telegram.ChatID != "42" {
		t.Errorf("telegram = %+v", cfg.Notifier.Telegram)
	}
}
