package stock

import (
	"sort"

	"MA5Sentinel/internal/model"
)

// DefaultWindowSize caps the rolling close window.
const DefaultWindowSize = 30

// DatedClose is one entry of the rolling close window.
type DatedClose struct {
	Date  string
	Close float64
}

// CloseWindow keeps at most one close per date, ascending by date, capped in size.
type CloseWindow struct {
	entries  []DatedClose
	capacity int
}

// NewCloseWindow creates an empty window. Non-positive capacity falls back to DefaultWindowSize.
func NewCloseWindow(capacity int) *CloseWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &CloseWindow{capacity: capacity}
}

// Seed replaces the window with the most recent bars. Duplicate dates keep the later bar.
func (w *CloseWindow) Seed(bars []model.Bar) {
	w.entries = w.entries[:0]
	for _, b := range bars {
		w.Upsert(b.Date, b.Close)
	}
}

// Upsert overwrites the close for date or inserts it in date order, then trims the oldest entries.
func (w *CloseWindow) Upsert(date string, close float64) {
	i := sort.Search(len(w.entries), func(i int) bool { return w.entries[i].Date >= date })
	if i < len(w.entries) && w.entries[i].Date == date {
		w.entries[i].Close = close
		return
	}
	w.entries = append(w.entries, DatedClose{})
	copy(w.entries[i+1:], w.entries[i:])
	w.entries[i] = DatedClose{Date: date, Close: close}
	if over := len(w.entries) - w.capacity; over > 0 {
		w.entries = append(w.entries[:0], w.entries[over:]...)
	}
}

// Len returns the number of entries.
func (w *CloseWindow) Len() int { return len(w.entries) }

// Entries returns a copy of the window.
func (w *CloseWindow) Entries() []DatedClose {
	out := make([]DatedClose, len(w.entries))
	copy(out, w.entries)
	return out
}

// Closes returns the closes in date order.
func (w *CloseWindow) Closes() []float64 {
	out := make([]float64, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.Close
	}
	return out
}

// ClosesBefore returns up to n most recent closes dated strictly before date.
func (w *CloseWindow) ClosesBefore(date string, n int) []float64 {
	end := sort.Search(len(w.entries), func(i int) bool { return w.entries[i].Date >= date })
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, end-start)
	for _, e := range w.entries[start:end] {
		out = append(out, e.Close)
	}
	return out
}
