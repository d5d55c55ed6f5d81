package model

import "time"

// Status is the summary the scheduler publishes after every pass.
type Status struct {
	MarketOpen bool
	Window     string
	Watched    int
	Held       int
	AlertsSent int64
	LastPass   time.Time
	NextOpen   time.Time
}
