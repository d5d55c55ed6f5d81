package collector

import (
	"context"
	"errors"
	"time"

	"MA5Sentinel/internal/model"
)

// ErrNoData is returned when the gateway has nothing for a symbol right now.
var ErrNoData = errors.New("no data")

// Gateway is the market-data source: daily bars, realtime quotes and the trading calendar.
type Gateway interface {
	HistoryBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
	RealtimePrice(ctx context.Context, symbol string) (price float64, name string, err error)
	RealtimeQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error)
	TradingCalendar(ctx context.Context, year int) (model.Calendar, error)
	Name() string
}
