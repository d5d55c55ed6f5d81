// Package session decides whether the exchange is in a trading session and
// when the next one starts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MA5Sentinel/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrCalendarUnavailable wraps calendar lookup failures.
var ErrCalendarUnavailable = errors.New("trading calendar unavailable")

// maxScanDays bounds NextOpen and PreviousTradingDay searches.
const maxScanDays = 31

// CalendarSource provides the exchange trading calendar for a year.
type CalendarSource interface {
	TradingCalendar(ctx context.Context, year int) (model.Calendar, error)
}

// WindowSpec is a configured session window in local "HH:MM" form.
type WindowSpec struct {
	Name  string
	Start string
	End   string
}

// DefaultWindows are the Shanghai/Shenzhen sessions: call auction, morning and afternoon.
var DefaultWindows = []WindowSpec{
	{Name: "pre_market", Start: "09:15", End: "09:30"},
	{Name: "morning", Start: "09:30", End: "11:30"},
	{Name: "afternoon", Start: "13:00", End: "15:00"},
}

type window struct {
	name       string
	start, end int // seconds since midnight, inclusive
	opens      *cron.SpecSchedule
}

// Clock answers session questions in the exchange's time zone.
type Clock struct {
	loc     *time.Location
	windows []window
	source  CalendarSource
	log     zerolog.Logger

	mu        sync.Mutex
	calendars map[int]model.Calendar
}

// NewClock builds a Clock. weekdays is a cron day-of-week field such as "1-5".
func NewClock(source CalendarSource, loc *time.Location, specs []WindowSpec, weekdays string, log zerolog.Logger) (*Clock, error) {
	if loc == nil {
		loc = time.Local
	}
	if weekdays == "" {
		weekdays = "*"
	}
	if len(specs) == 0 {
		specs = DefaultWindows
	}
	c := &Clock{
		loc:       loc,
		source:    source,
		log:       log.With().Str("component", "session").Logger(),
		calendars: make(map[int]model.Calendar),
	}
	for _, s := range specs {
		w, err := parseWindow(s, weekdays, loc)
		if err != nil {
			return nil, err
		}
		c.windows = append(c.windows, w)
	}
	return c, nil
}

func parseWindow(s WindowSpec, weekdays string, loc *time.Location) (window, error) {
	sh, sm, err := parseHHMM(s.Start)
	if err != nil {
		return window{}, fmt.Errorf("window %s start: %w", s.Name, err)
	}
	eh, em, err := parseHHMM(s.End)
	if err != nil {
		return window{}, fmt.Errorf("window %s end: %w", s.Name, err)
	}
	w := window{name: s.Name, start: sh*3600 + sm*60, end: eh*3600 + em*60}
	if w.end <= w.start {
		return window{}, fmt.Errorf("window %s: end %s not after start %s", s.Name, s.End, s.Start)
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * %s", sm, sh, weekdays))
	if err != nil {
		return window{}, fmt.Errorf("window %s schedule: %w", s.Name, err)
	}
	spec, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return window{}, fmt.Errorf("window %s: unsupported schedule", s.Name)
	}
	spec.Location = loc
	w.opens = spec
	return w, nil
}

func parseHHMM(v string) (int, int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// Location returns the exchange time zone.
func (c *Clock) Location() *time.Location { return c.loc }

// IsOpen reports whether now falls inside a session window on a trading day.
// A calendar failure counts as closed.
func (c *Clock) IsOpen(ctx context.Context, now time.Time) bool {
	t := now.In(c.loc)
	if _, ok := c.windowAt(t); !ok {
		return false
	}
	trading, err := c.IsTradingDay(ctx, t)
	if err != nil {
		c.log.Warn().Err(err).Str("date", t.Format(model.DateLayout)).Msg("calendar lookup failed, treating market as closed")
		return false
	}
	return trading
}

// Window returns the name of the session window containing now, if any.
func (c *Clock) Window(now time.Time) (string, bool) {
	w, ok := c.windowAt(now.In(c.loc))
	return w.name, ok
}

func (c *Clock) windowAt(t time.Time) (window, bool) {
	dow := uint64(1) << uint(t.Weekday())
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	for _, w := range c.windows {
		if w.opens.Dow&dow == 0 {
			continue
		}
		if secs >= w.start && secs <= w.end {
			return w, true
		}
	}
	return window{}, false
}

// NextOpen returns the earliest instant at or after now at which IsOpen holds.
// It stops at the first calendar failure.
func (c *Clock) NextOpen(ctx context.Context, now time.Time) (time.Time, error) {
	t := now.In(c.loc)
	if c.IsOpen(ctx, t) {
		return t, nil
	}
	limit := t.AddDate(0, 0, maxScanDays)
	cursor := t
	for {
		next := c.nextWindowStart(cursor)
		if next.IsZero() || next.After(limit) {
			return time.Time{}, fmt.Errorf("no session within %d days of %s", maxScanDays, t.Format(time.RFC3339))
		}
		trading, err := c.IsTradingDay(ctx, next)
		if err != nil {
			return time.Time{}, fmt.Errorf("next session after %s: %w", t.Format(time.RFC3339), err)
		}
		if trading {
			return next, nil
		}
		cursor = next
	}
}

func (c *Clock) nextWindowStart(after time.Time) time.Time {
	var best time.Time
	for _, w := range c.windows {
		n := w.opens.Next(after)
		if n.IsZero() {
			continue
		}
		if best.IsZero() || n.Before(best) {
			best = n
		}
	}
	return best
}

// IsTradingDay looks day up in the trading calendar.
func (c *Clock) IsTradingDay(ctx context.Context, day time.Time) (bool, error) {
	d := day.In(c.loc)
	cal, err := c.calendar(ctx, d.Year())
	if err != nil {
		return false, err
	}
	return cal.IsTradingDay(d), nil
}

// PreviousTradingDay returns the last trading day strictly before day.
func (c *Clock) PreviousTradingDay(ctx context.Context, day time.Time) (time.Time, error) {
	d := day.In(c.loc)
	for i := 1; i <= maxScanDays; i++ {
		prev := d.AddDate(0, 0, -i)
		trading, err := c.IsTradingDay(ctx, prev)
		if err != nil {
			return time.Time{}, err
		}
		if trading {
			return prev, nil
		}
	}
	return time.Time{}, fmt.Errorf("no trading day within %d days before %s", maxScanDays, d.Format(model.DateLayout))
}

func (c *Clock) calendar(ctx context.Context, year int) (model.Calendar, error) {
	c.mu.Lock()
	cal, ok := c.calendars[year]
	c.mu.Unlock()
	if ok {
		return cal, nil
	}
	if c.source == nil {
		return nil, fmt.Errorf("year %d: no calendar source: %w", year, ErrCalendarUnavailable)
	}
	cal, err := c.source.TradingCalendar(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("year %d: %v: %w", year, err, ErrCalendarUnavailable)
	}
	if len(cal) == 0 {
		return nil, fmt.Errorf("year %d: empty calendar: %w", year, ErrCalendarUnavailable)
	}
	c.mu.Lock()
	c.calendars[year] = cal
	c.mu.Unlock()
	return cal, nil
}
