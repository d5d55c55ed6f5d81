package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"MA5Sentinel/internal/alert"
	"MA5Sentinel/internal/collector"
	"MA5Sentinel/internal/config"
	"MA5Sentinel/internal/logger"
	"MA5Sentinel/internal/metrics"
	"MA5Sentinel/internal/notifier"
	"MA5Sentinel/internal/recorder"
	"MA5Sentinel/internal/scheduler"
	"MA5Sentinel/internal/session"
	"MA5Sentinel/internal/strategy"
	"MA5Sentinel/internal/watchlist"
)

func main() {
	// Secrets may live in .env; a missing file is fine.
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal("load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("config validation", err)
	}

	log, logCloser, err := logger.New(logger.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}, os.Stdout)
	if err != nil {
		fatal("init logger", err)
	}
	defer logCloser.Close()
	log.Info().Str("config", cfgPath).Msg("MA5 Sentinel starting")

	lists, err := watchlist.Load(cfg.WatchlistFile, cfg.HoldingsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load symbol lists")
	}
	log.Info().Int("watched", len(lists.Watch)).Int("held", len(lists.Holdings)).Msg("symbol lists loaded")

	// Data gateway
	gw := collector.NewRESTGateway(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Proxy, cfg.Gateway.Timeout)
	col := collector.NewCollector(gw, cfg.Monitor.HistoryDays)
	log.Info().Str("gateway", gw.Name()).Str("base_url", cfg.Gateway.BaseURL).Msg("data source ready")

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("session timezone")
	}
	clock, err := session.NewClock(col, loc, cfg.WindowSpecs(), cfg.Session.Weekdays, log)
	if err != nil {
		log.Fatal().Err(err).Msg("session clock")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Notifiers
	var channels []notifier.Notifier
	if cfg.Notifier.Desktop {
		channels = append(channels, notifier.NewDesktop("MA5 Sentinel"))
	}
	var tg *notifier.Telegram
	if cfg.Notifier.Telegram.Enabled {
		tg, err = notifier.NewTelegram(cfg.Notifier.Telegram.BotToken, cfg.Notifier.Telegram.ChatID, cfg.Gateway.Proxy,
			cfg.Notifier.Telegram.MaxRetries, cfg.Notifier.Telegram.RetryDelay, log)
		if err != nil {
			log.Warn().Err(err).Msg("telegram unavailable, continuing without it")
			tg = nil
		} else {
			channels = append(channels, tg)
		}
	}
	multi := notifier.NewMulti(log, channels...)
	log.Info().Strs("channels", multi.Channels()).Msg("notifiers ready")

	// Recorder
	var rec recorder.Recorder
	if cfg.Recorder.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	if srv := metrics.Serve(cfg.Metrics.Addr, log); srv != nil {
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics endpoint started")
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()
	}

	rng := strategy.NewPriceRange(cfg.Monitor.Tolerance)
	dispatcher := alert.NewDispatcher(rng, multi, rec, log)
	sched := scheduler.NewScheduler(clock, col, dispatcher, rng, rec, lists.Watch, lists.Holdings, scheduler.Options{
		TickInterval:     cfg.Monitor.TickInterval,
		BuyAlertInterval: cfg.Monitor.BuyAlertInterval,
		SellDebounce:     cfg.Monitor.SellDebounce,
		WakeLead:         cfg.Monitor.WakeLead,
		MaxClosedSleep:   cfg.Monitor.MaxClosedSleep,
		WindowSize:       cfg.Monitor.WindowSize,
	}, log)

	if tg != nil {
		tg.ListenForCommands(ctx, sched)
		log.Info().Msg("telegram command listener started")
	}

	log.Info().Msg("MA5 Sentinel is running. Press Ctrl+C to stop.")
	if err := sched.Run(ctx); err != nil {
		log.Error().Err(err).Msg("monitor loop")
	}

	log.Info().Msg("shutdown signal received, waiting for pending notifications")
	waitDispatch(dispatcher, 10*time.Second, log)
	log.Info().Msg("MA5 Sentinel stopped")
}

// waitDispatch gives in-flight notifications a bounded grace period.
func waitDispatch(d *alert.Dispatcher, grace time.Duration, log zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		log.Warn().Dur("grace", grace).Msg("notifications still pending at exit")
	}
}

// fatal is used before the logger exists.
func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "[FATAL] %s: %v\n", what, err)
	os.Exit(1)
}
