package collector

import (
	"context"
	"fmt"
	"time"

	"MA5Sentinel/internal/metrics"
	"MA5Sentinel/internal/model"
)

// Collector wraps a Gateway with a history lookback, a display-name cache and latency metrics.
// It is used from the scheduler goroutine only.
type Collector struct {
	Gateway     Gateway
	HistoryDays int

	names map[string]string
}

// NewCollector creates a new Collector.
func NewCollector(gw Gateway, historyDays int) *Collector {
	if historyDays <= 0 {
		historyDays = 60
	}
	return &Collector{Gateway: gw, HistoryDays: historyDays, names: make(map[string]string)}
}

// DailyBars fetches bars for the lookback window ending at end, oldest first.
func (c *Collector) DailyBars(ctx context.Context, symbol string, end time.Time) ([]model.Bar, error) {
	start := end.AddDate(0, 0, -c.HistoryDays)
	t0 := time.Now()
	bars, err := c.Gateway.HistoryBars(ctx, symbol, start, end)
	metrics.ObserveGateway("history_bars", t0, err)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("bars %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

// Price returns the realtime price for symbol and remembers its display name.
func (c *Collector) Price(ctx context.Context, symbol string) (float64, error) {
	t0 := time.Now()
	price, name, err := c.Gateway.RealtimePrice(ctx, symbol)
	metrics.ObserveGateway("realtime_price", t0, err)
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, fmt.Errorf("realtime price %s: %w", symbol, ErrNoData)
	}
	c.remember(symbol, name)
	return price, nil
}

// Quotes fetches realtime quotes for all symbols in one call.
func (c *Collector) Quotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	t0 := time.Now()
	quotes, err := c.Gateway.RealtimeQuotes(ctx, symbols)
	metrics.ObserveGateway("realtime_quotes", t0, err)
	if err != nil {
		return nil, err
	}
	for sym, q := range quotes {
		c.remember(sym, q.Name)
	}
	return quotes, nil
}

// TradingCalendar satisfies session.CalendarSource.
func (c *Collector) TradingCalendar(ctx context.Context, year int) (model.Calendar, error) {
	t0 := time.Now()
	cal, err := c.Gateway.TradingCalendar(ctx, year)
	metrics.ObserveGateway("trading_calendar", t0, err)
	return cal, err
}

// DisplayName returns the cached name for symbol, or "" when none has been seen.
func (c *Collector) DisplayName(symbol string) string {
	return c.names[symbol]
}

func (c *Collector) remember(symbol, name string) {
	if name != "" {
		c.names[symbol] = name
	}
}
