package stock

import "MA5Sentinel/internal/model"

// TickLog is an append-only list of realtime ticks that drops exact repeats.
type TickLog struct {
	ticks []model.Tick
}

// Append adds t unless it matches the previous tick in every field but the timestamp.
func (l *TickLog) Append(t model.Tick) bool {
	if n := len(l.ticks); n > 0 && l.ticks[n-1].SameAs(t) {
		return false
	}
	l.ticks = append(l.ticks, t)
	return true
}

// Len returns the number of recorded ticks.
func (l *TickLog) Len() int { return len(l.ticks) }

// Last returns the most recent tick.
func (l *TickLog) Last() (model.Tick, bool) {
	if len(l.ticks) == 0 {
		return model.Tick{}, false
	}
	return l.ticks[len(l.ticks)-1], true
}

// Reset clears the log.
func (l *TickLog) Reset() { l.ticks = nil }
