package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"MA5Sentinel/internal/session"
)

var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	WatchlistFile string `yaml:"watchlist_file" default:"configs/watchlist.txt" validate:"required"`
	HoldingsFile  string `yaml:"holdings_file" default:"configs/holdings.txt" validate:"required"`

	Gateway struct {
		BaseURL string        `yaml:"base_url" validate:"required,url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		Proxy   string        `yaml:"proxy"`
	} `yaml:"gateway"`

	Session struct {
		Timezone string         `yaml:"timezone" default:"Asia/Shanghai" validate:"required"`
		Weekdays string         `yaml:"weekdays" default:"1-5" validate:"required"`
		Windows  []WindowConfig `yaml:"windows" validate:"required,min=1,dive"`
	} `yaml:"session"`

	Monitor struct {
		TickInterval     time.Duration `yaml:"tick_interval" default:"1s" validate:"gt=0"`
		Tolerance        float64       `yaml:"tolerance" default:"0.02" validate:"gt=0,lte=1"`
		BuyAlertInterval time.Duration `yaml:"buy_alert_interval" default:"300s" validate:"gte=0"`
		SellDebounce     time.Duration `yaml:"sell_debounce" default:"300s" validate:"gte=0"`
		WindowSize       int           `yaml:"window_size" default:"30" validate:"min=5,max=30"`
		HistoryDays      int           `yaml:"history_days" default:"60" validate:"min=10"`
		WakeLead         time.Duration `yaml:"wake_lead" default:"1s" validate:"gte=0"`
		MaxClosedSleep   time.Duration `yaml:"max_closed_sleep" default:"30m" validate:"gt=0"`
	} `yaml:"monitor"`

	Notifier struct {
		Desktop  bool `yaml:"desktop" default:"true"`
		Telegram struct {
			Enabled    bool          `yaml:"enabled"`
			BotToken   string        `yaml:"bot_token" validate:"required_if=Enabled true"`
			ChatID     string        `yaml:"chat_id" validate:"required_if=Enabled true"`
			MaxRetries int           `yaml:"max_retries" default:"3" validate:"gte=0,lte=10"`
			RetryDelay time.Duration `yaml:"retry_delay" default:"1s" validate:"gt=0"`
		} `yaml:"telegram"`
	} `yaml:"notifier"`

	Logging struct {
		Level      string `yaml:"level" default:"debug" validate:"oneof=trace debug info warn error"`
		File       string `yaml:"file" default:"logs/ma5sentinel.log"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"20" validate:"gt=0"`
		MaxBackups int    `yaml:"max_backups" default:"5" validate:"gte=0"`
		MaxAgeDays int    `yaml:"max_age_days" default:"14" validate:"gte=0"`
	} `yaml:"logging"`

	Recorder struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/ma5_sentinel.db"`
	} `yaml:"recorder"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// WindowConfig is one trading session window in exchange local time.
type WindowConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Start string `yaml:"start" validate:"required"`
	End   string `yaml:"end" validate:"required"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Defaults first so explicit zero values in the file (desktop: false) survive.
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	for _, w := range session.DefaultWindows {
		cfg.Session.Windows = append(cfg.Session.Windows, WindowConfig{Name: w.Name, Start: w.Start, End: w.End})
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifier.Telegram.BotToken = v
		cfg.Notifier.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifier.Telegram.ChatID = v
	}
	if v := os.Getenv("GATEWAY_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("GATEWAY_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Gateway.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Recorder.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	return cfg, nil
}

// Validate checks field constraints, then the session layout.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config %s: failed %q %s", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("validate config: %w", err)
	}

	loc, err := c.Location()
	if err != nil {
		return err
	}
	specs := c.WindowSpecs()
	if _, err := session.NewClock(nil, loc, specs, c.Session.Weekdays, zerolog.Nop()); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	// Windows must be listed in time order.
	for i := 1; i < len(specs); i++ {
		prev, _ := time.Parse("15:04", specs[i-1].Start)
		cur, _ := time.Parse("15:04", specs[i].Start)
		if cur.Before(prev) {
			return fmt.Errorf("session.windows: %s starts before %s", specs[i].Name, specs[i-1].Name)
		}
	}
	return nil
}

// Location loads the exchange time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Session.Timezone)
	if err != nil {
		return nil, fmt.Errorf("session.timezone %q: %w", c.Session.Timezone, err)
	}
	return loc, nil
}

// WindowSpecs converts the configured windows for the session clock.
func (c *Config) WindowSpecs() []session.WindowSpec {
	specs := make([]session.WindowSpec, len(c.Session.Windows))
	for i, w := range c.Session.Windows {
		specs[i] = session.WindowSpec{Name: w.Name, Start: w.Start, End: w.End}
	}
	return specs
}
