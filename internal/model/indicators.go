package model

// Level is a price-like value that may not have been established yet.
type Level struct {
	Value float64
	Set   bool
}

// NewLevel returns a set level.
func NewLevel(v float64) Level {
	return Level{Value: v, Set: true}
}

// ReferenceLevels holds the prior trading day's thresholds for sell signals.
type ReferenceLevels struct {
	Date string
	High Level
	Open Level
	Low  Level
}

// Complete reports whether all three levels are set.
func (r ReferenceLevels) Complete() bool {
	return r.High.Set && r.Open.Set && r.Low.Set
}
