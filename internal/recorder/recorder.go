// Package recorder keeps an append-only journal of alerts and off-session
// snapshots. Nothing in it is read back into monitoring state.
package recorder

import (
	"time"

	"MA5Sentinel/internal/model"
)

// SessionSnapshot is the off-session summary of one symbol.
type SessionSnapshot struct {
	Symbol    string
	Name      string
	Held      bool
	Date      string // session day the numbers belong to
	MA5       model.Level
	OpenPrice model.Level // next-day open that would sit on MA5 (watched symbols)
	Ref       model.ReferenceLevels
	Price     float64
	TakenAt   time.Time
}

// Recorder persists alerts and snapshots for later review.
type Recorder interface {
	RecordAlert(a model.Alert) error
	RecordSnapshot(snap *SessionSnapshot) error
	Close() error
}
