package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"MA5Sentinel/internal/model"

	"github.com/rs/zerolog"
)

var cst = time.FixedZone("CST", 8*3600)

type fakeCalendar struct {
	holidays map[string]bool
	err      error
	calls    int
}

func (f *fakeCalendar) TradingCalendar(_ context.Context, year int) (model.Calendar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cal := make(model.Calendar)
	for d := time.Date(year, 1, 1, 0, 0, 0, 0, cst); d.Year() == year; d = d.AddDate(0, 0, 1) {
		key := d.Format(model.DateLayout)
		wd := d.Weekday()
		cal[key] = wd != time.Saturday && wd != time.Sunday && !f.holidays[key]
	}
	return cal, nil
}

func goldenWeek() *fakeCalendar {
	h := map[string]bool{}
	for d := 1; d <= 7; d++ {
		h[time.Date(2026, 10, d, 0, 0, 0, 0, cst).Format(model.DateLayout)] = true
	}
	return &fakeCalendar{holidays: h}
}

func newTestClock(t *testing.T, src CalendarSource) *Clock {
	t.Helper()
	c, err := NewClock(src, cst, DefaultWindows, "1-5", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	return c
}

func ts(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, cst)
}

func TestIsOpen(t *testing.T) {
	c := newTestClock(t, goldenWeek())
	ctx := context.Background()
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before pre-market", ts(2026, 10, 15, 9, 14, 59), false},
		{"pre-market start", ts(2026, 10, 15, 9, 15, 0), true},
		{"morning", ts(2026, 10, 15, 10, 30, 0), true},
		{"morning close", ts(2026, 10, 15, 11, 30, 0), true},
		{"midday break", ts(2026, 10, 15, 12, 0, 0), false},
		{"afternoon open", ts(2026, 10, 15, 13, 0, 0), true},
		{"afternoon close", ts(2026, 10, 15, 15, 0, 0), true},
		{"after close", ts(2026, 10, 15, 15, 0, 1), false},
		{"saturday", ts(2026, 10, 17, 10, 0, 0), false},
		{"holiday", ts(2026, 10, 5, 10, 0, 0), false},
		{"other zone", time.Date(2026, 10, 15, 2, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsOpen(ctx, tt.at); got != tt.want {
				t.Errorf("IsOpen(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestIsOpen_CalendarFailureIsClosed(t *testing.T) {
	c := newTestClock(t, &fakeCalendar{err: errors.New("gateway down")})
	if c.IsOpen(context.Background(), ts(2026, 10, 15, 10, 0, 0)) {
		t.Error("calendar failure must report closed")
	}
	if _, err := c.IsTradingDay(context.Background(), ts(2026, 10, 15, 10, 0, 0)); !errors.Is(err, ErrCalendarUnavailable) {
		t.Errorf("expected ErrCalendarUnavailable, got %v", err)
	}
}

func TestCalendarCachedPerYear(t *testing.T) {
	src := goldenWeek()
	c := newTestClock(t, src)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		c.IsOpen(ctx, ts(2026, 10, 15, 10, 0, i))
	}
	if src.calls != 1 {
		t.Errorf("expected 1 calendar fetch, got %d", src.calls)
	}
}

func TestNextOpen(t *testing.T) {
	c := newTestClock(t, goldenWeek())
	ctx := context.Background()
	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"already open", ts(2026, 10, 15, 10, 0, 0), ts(2026, 10, 15, 10, 0, 0)},
		{"early morning", ts(2026, 10, 15, 8, 0, 0), ts(2026, 10, 15, 9, 15, 0)},
		{"midday", ts(2026, 10, 15, 12, 0, 0), ts(2026, 10, 15, 13, 0, 0)},
		{"evening", ts(2026, 10, 15, 15, 30, 0), ts(2026, 10, 16, 9, 15, 0)},
		{"friday evening", ts(2026, 10, 16, 16, 0, 0), ts(2026, 10, 19, 9, 15, 0)},
		{"before holiday", ts(2026, 9, 30, 16, 0, 0), ts(2026, 10, 8, 9, 15, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.NextOpen(ctx, tt.at)
			if err != nil {
				t.Fatalf("NextOpen: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOpen(%s) = %s, want %s", tt.at, got, tt.want)
			}
		})
	}
}

func TestNextOpen_NoCalendar(t *testing.T) {
	src := &fakeCalendar{err: errors.New("down")}
	c := newTestClock(t, src)
	_, err := c.NextOpen(context.Background(), ts(2026, 10, 15, 16, 0, 0))
	if !errors.Is(err, ErrCalendarUnavailable) {
		t.Errorf("expected ErrCalendarUnavailable, got %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected 1 calendar fetch during outage, got %d", src.calls)
	}
}

func TestPreviousTradingDay(t *testing.T) {
	c := newTestClock(t, goldenWeek())
	ctx := context.Background()
	tests := []struct {
		day  time.Time
		want string
	}{
		{ts(2026, 10, 15, 9, 0, 0), "2026-10-14"},
		{ts(2026, 10, 19, 9, 0, 0), "2026-10-16"},
		{ts(2026, 10, 8, 9, 0, 0), "2026-09-30"},
		{ts(2027, 1, 1, 9, 0, 0), "2026-12-31"},
	}
	for _, tt := range tests {
		got, err := c.PreviousTradingDay(ctx, tt.day)
		if err != nil {
			t.Fatalf("PreviousTradingDay(%s): %v", tt.day, err)
		}
		if got.Format(model.DateLayout) != tt.want {
			t.Errorf("PreviousTradingDay(%s) = %s, want %s", tt.day, got.Format(model.DateLayout), tt.want)
		}
	}
}

func TestNewClock_InvalidWindow(t *testing.T) {
	bad := [][]WindowSpec{
		{{Name: "x", Start: "9:75", End: "10:00"}},
		{{Name: "x", Start: "10:00", End: "09:00"}},
	}
	for _, specs := range bad {
		if _, err := NewClock(nil, cst, specs, "1-5", zerolog.Nop()); err == nil {
			t.Errorf("expected error for %+v", specs)
		}
	}
	if _, err := NewClock(nil, cst, DefaultWindows, "mon-xyz", zerolog.Nop()); err == nil {
		t.Error("expected error for bad weekday field")
	}
}

func TestWindow(t *testing.T) {
	c := newTestClock(t, goldenWeek())
	if name, ok := c.Window(ts(2026, 10, 15, 13, 30, 0)); !ok || name != "afternoon" {
		t.Errorf("expected afternoon, got %q %v", name, ok)
	}
	if _, ok := c.Window(ts(2026, 10, 15, 12, 30, 0)); ok {
		t.Error("midday must not be in any window")
	}
}
