package model

import "time"

// DateLayout is the trade-date format used across bars and calendars.
const DateLayout = "2006-01-02"

// Bar represents a single daily candlestick.
type Bar struct {
	Date          string // YYYY-MM-DD
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        float64
	Amount        float64
	Change        float64
	ChangePct     float64
	TurnoverRatio float64
}

// Quote is a realtime snapshot for one symbol as returned by the gateway.
type Quote struct {
	Symbol    string
	Name      string
	Price     float64
	Change    float64
	ChangePct float64
	Volume    float64
	Amount    float64
}

// Tick converts the quote into a timestamped tick.
func (q Quote) Tick(at time.Time) Tick {
	return Tick{
		Price:     q.Price,
		Change:    q.Change,
		ChangePct: q.ChangePct,
		Volume:    q.Volume,
		Amount:    q.Amount,
		Time:      at,
	}
}

// Tick is one realtime observation recorded in a symbol's tick log.
type Tick struct {
	Price     float64
	Change    float64
	ChangePct float64
	Volume    float64
	Amount    float64
	Time      time.Time
}

// Empty reports whether the tick carries no usable price.
func (t Tick) Empty() bool {
	return t.Price <= 0
}

// SameAs compares every field except the timestamp.
func (t Tick) SameAs(o Tick) bool {
	return t.Price == o.Price &&
		t.Change == o.Change &&
		t.ChangePct == o.ChangePct &&
		t.Volume == o.Volume &&
		t.Amount == o.Amount
}

// Calendar maps a trade date (YYYY-MM-DD) to whether the exchange trades that day.
type Calendar map[string]bool

// IsTradingDay reports whether day is marked as trading.
func (c Calendar) IsTradingDay(day time.Time) bool {
	return c[day.Format(DateLayout)]
}
