// Package stock holds the per-symbol monitoring state: rolling closes,
// reference levels, MA5, the current price, the tick log and sell debounce.
package stock

import (
	"time"

	"MA5Sentinel/internal/calculator"
	"MA5Sentinel/internal/model"
	"MA5Sentinel/internal/strategy"
)

const (
	reasonNoPrice = "insufficient price/MA5 data"
	reasonNoRefs  = "insufficient reference data"
)

// State is owned by the scheduler goroutine; it is not safe for concurrent use.
type State struct {
	Symbol model.Symbol

	window    *CloseWindow
	ticks     TickLog
	ref       model.ReferenceLevels
	ma5       model.Level
	price     model.Level
	today     string
	snapshot  model.Quote
	sellFired map[model.ConditionID]time.Time
}

// New creates an empty state for sym.
func New(sym model.Symbol, windowSize int) *State {
	return &State{
		Symbol:    sym,
		window:    NewCloseWindow(windowSize),
		sellFired: make(map[model.ConditionID]time.Time),
	}
}

// Initialize seeds the state for the session day today. Reference levels come from
// the bar dated prevTradeDate; they stay unset when no such bar exists.
// Call once per symbol at the start of each trading day.
func (s *State) Initialize(bars []model.Bar, prevTradeDate, today string) {
	if len(bars) > s.window.capacity {
		bars = bars[len(bars)-s.window.capacity:]
	}
	s.window.Seed(bars)
	s.today = today
	s.ticks.Reset()
	s.price = model.Level{}

	s.ref = model.ReferenceLevels{Date: prevTradeDate}
	for _, b := range bars {
		if b.Date == prevTradeDate {
			s.ref.High = model.NewLevel(b.High)
			s.ref.Open = model.NewLevel(b.Open)
			s.ref.Low = model.NewLevel(b.Low)
		}
	}
	s.recompute()
}

// UpdatePrice applies a realtime tick. It does nothing and returns false when the
// market is closed or the tick is empty.
func (s *State) UpdatePrice(tick model.Tick, marketOpen bool) bool {
	if !marketOpen || tick.Empty() {
		return false
	}
	s.apply(tick)
	s.recompute()
	return true
}

// apply records the tick, sets the current price and upserts today's close.
func (s *State) apply(tick model.Tick) {
	s.ticks.Append(tick)
	s.price = model.NewLevel(tick.Price)
	day := s.today
	if !tick.Time.IsZero() {
		day = tick.Time.Format(model.DateLayout)
	}
	s.window.Upsert(day, tick.Price)
}

// recompute derives MA5 from the window.
func (s *State) recompute() {
	ma, err := calculator.CalculateMA5(s.window.Closes())
	if err != nil {
		s.ma5 = model.Level{}
		return
	}
	s.ma5 = model.NewLevel(ma)
}

// CheckSellConditions evaluates the sell table against the current price. A fire
// stamps that condition's debounce bucket with now; nothing else is touched.
func (s *State) CheckSellConditions(now time.Time, debounce time.Duration) model.SellSignal {
	if !s.price.Set || !s.ma5.Set {
		return model.SellSignal{Reason: reasonNoPrice}
	}
	if !s.ref.Complete() {
		return model.SellSignal{Reason: reasonNoRefs}
	}
	in := strategy.SellInput{Price: s.price.Value, MA5: s.ma5.Value, Ref: s.ref}
	for _, c := range strategy.MatchSell(in) {
		if last, ok := s.sellFired[c.ID]; ok && now.Sub(last) < debounce {
			continue
		}
		s.sellFired[c.ID] = now
		return model.SellSignal{Fired: true, Reason: c.Reason, Condition: c.ID}
	}
	return model.SellSignal{}
}

// PriorCloses returns up to n closes dated before the current session day.
func (s *State) PriorCloses(n int) []float64 {
	return s.window.ClosesBefore(s.today, n)
}

// RefreshSnapshot stores the latest quote for reporting without touching the window or price.
func (s *State) RefreshSnapshot(q model.Quote) {
	s.snapshot = q
	if q.Name != "" {
		s.Symbol.Name = q.Name
	}
}

// Snapshot returns the last quote stored by RefreshSnapshot.
func (s *State) Snapshot() model.Quote { return s.snapshot }

// Price returns the current price.
func (s *State) Price() model.Level { return s.price }

// MA5 returns the current five-day moving average.
func (s *State) MA5() model.Level { return s.ma5 }

// Reference returns the prior trading day's levels.
func (s *State) Reference() model.ReferenceLevels { return s.ref }

// Today returns the session day the state was seeded for.
func (s *State) Today() string { return s.today }

// Window returns a copy of the rolling close window.
func (s *State) Window() []DatedClose { return s.window.Entries() }

// TickCount returns the number of distinct ticks recorded today.
func (s *State) TickCount() int { return s.ticks.Len() }

// LastTick returns the most recent tick.
func (s *State) LastTick() (model.Tick, bool) { return s.ticks.Last() }
