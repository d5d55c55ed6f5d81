// Package scheduler runs the monitor loop. It alternates between an open-market
// pass every tick and an off-session report followed by a long sleep.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"MA5Sentinel/internal/alert"
	"MA5Sentinel/internal/collector"
	"MA5Sentinel/internal/metrics"
	"MA5Sentinel/internal/model"
	"MA5Sentinel/internal/recorder"
	"MA5Sentinel/internal/session"
	"MA5Sentinel/internal/stock"
	"MA5Sentinel/internal/strategy"
)

const (
	seedRetry       = 30 * time.Second
	calendarBackoff = time.Minute
)

// Options are the loop timings and window sizes.
type Options struct {
	TickInterval     time.Duration
	BuyAlertInterval time.Duration
	SellDebounce     time.Duration
	WakeLead         time.Duration
	MaxClosedSleep   time.Duration
	WindowSize       int
}

// Scheduler owns every stock.State; all of them are touched only from Run's goroutine.
type Scheduler struct {
	clock      *session.Clock
	data       *collector.Collector
	dispatcher *alert.Dispatcher
	rng        *strategy.PriceRange
	recorder   recorder.Recorder
	log        zerolog.Logger
	opts       Options

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	watch     []*stock.State
	held      []*stock.State
	nextRetry map[string]time.Time
	reported  bool // off-session report done for the current closed stretch

	mu     sync.Mutex
	status model.Status
}

// NewScheduler creates a scheduler for the given symbols.
func NewScheduler(clock *session.Clock, data *collector.Collector, d *alert.Dispatcher, rng *strategy.PriceRange,
	rec recorder.Recorder, watch, held []model.Symbol, opts Options, log zerolog.Logger) *Scheduler {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.MaxClosedSleep <= 0 {
		opts.MaxClosedSleep = 30 * time.Minute
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = stock.DefaultWindowSize
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Scheduler{
		clock:      clock,
		data:       data,
		dispatcher: d,
		rng:        rng,
		recorder:   rec,
		log:        log.With().Str("component", "scheduler").Logger(),
		opts:       opts,
		now:        time.Now,
		sleep:      sleepCtx,
		nextRetry:  make(map[string]time.Time),
	}
	for _, sym := range watch {
		s.watch = append(s.watch, stock.New(sym, opts.WindowSize))
	}
	for _, sym := range held {
		s.held = append(s.held, stock.New(sym, opts.WindowSize))
	}
	s.status = model.Status{Watched: len(s.watch), Held: len(s.held)}
	return s
}

// Run loops until ctx is cancelled. Session state is re-checked after every wake-up.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Int("watched", len(s.watch)).Int("held", len(s.held)).Msg("monitor loop started")
	for {
		wait := s.Step(ctx)
		if err := s.sleep(ctx, wait); err != nil {
			s.log.Info().Msg("monitor loop stopped")
			return nil
		}
	}
}

// Step runs one iteration and returns how long to wait before the next one.
func (s *Scheduler) Step(ctx context.Context) time.Duration {
	now := s.now().In(s.clock.Location())
	open := s.clock.IsOpen(ctx, now)
	metrics.SetMarketOpen(open)

	if open {
		if s.reported {
			s.log.Info().Msg("market open")
		}
		s.reported = false
		s.ensureSeeded(ctx, now)
		s.openPass(ctx, now)
		window, _ := s.clock.Window(now)
		s.publish(model.Status{MarketOpen: true, Window: window, LastPass: now})
		return s.opts.TickInterval
	}

	if !s.reported {
		s.log.Info().Msg("market closed, waiting for next session")
		s.ensureSeeded(ctx, now)
		s.closedReport(ctx, now)
		s.reported = true
	}
	wait, next := s.closedWait(ctx, now)
	s.publish(model.Status{LastPass: now, NextOpen: next})
	return wait
}

// Status returns the last published pass summary.
func (s *Scheduler) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) publish(st model.Status) {
	st.Watched = len(s.watch)
	st.Held = len(s.held)
	st.AlertsSent = s.dispatcher.Sent()
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// ensureSeeded initializes every state not yet seeded for now's session day.
// Failed symbols are retried after seedRetry and skipped until then.
func (s *Scheduler) ensureSeeded(ctx context.Context, now time.Time) {
	today := now.Format(model.DateLayout)
	var pending []*stock.State
	for _, st := range s.all() {
		if st.Today() == today {
			continue
		}
		if at, ok := s.nextRetry[st.Symbol.Code]; ok && now.Before(at) {
			continue
		}
		pending = append(pending, st)
	}
	if len(pending) == 0 {
		return
	}

	prev, err := s.clock.PreviousTradingDay(ctx, now)
	if err != nil {
		for _, st := range pending {
			s.nextRetry[st.Symbol.Code] = now.Add(seedRetry)
		}
		s.log.Warn().Err(err).Str("date", today).Int("symbols", len(pending)).Msg("previous trading day unknown, seeding deferred")
		return
	}
	prevDate := prev.Format(model.DateLayout)

	for _, st := range pending {
		bars, err := s.data.DailyBars(ctx, st.Symbol.Code, now)
		if err != nil {
			s.nextRetry[st.Symbol.Code] = now.Add(seedRetry)
			s.log.Warn().Err(err).Str("symbol", st.Symbol.Code).Msg("seed history failed")
			continue
		}
		delete(s.nextRetry, st.Symbol.Code)
		st.Initialize(bars, prevDate, today)
		ev := s.log.Debug().Str("symbol", st.Symbol.Code).Str("day", today).Str("prev", prevDate).Int("closes", len(st.Window()))
		if ma := st.MA5(); ma.Set {
			ev = ev.Float64("ma5", ma.Value)
		}
		ev.Msg("seeded")
	}
}

func (s *Scheduler) all() []*stock.State {
	out := make([]*stock.State, 0, len(s.watch)+len(s.held))
	out = append(out, s.watch...)
	return append(out, s.held...)
}

// openPass evaluates every symbol once, strictly in sequence.
func (s *Scheduler) openPass(ctx context.Context, now time.Time) {
	started := time.Now()
	defer func() { metrics.PassDuration.Observe(time.Since(started).Seconds()) }()

	today := now.Format(model.DateLayout)
	for _, st := range s.watch {
		if ctx.Err() != nil {
			return
		}
		if st.Today() != today {
			continue
		}
		s.evaluateWatch(ctx, st, now)
	}
	s.evaluateHeld(ctx, now, today)
}

func (s *Scheduler) evaluateWatch(ctx context.Context, st *stock.State, now time.Time) {
	code := st.Symbol.Code
	price, err := s.data.Price(ctx, code)
	if err != nil {
		s.logDataError(err, code, "realtime price")
		return
	}
	metrics.TicksTotal.WithLabelValues(code).Inc()
	if name := s.data.DisplayName(code); name != "" {
		st.Symbol.Name = name
	}

	prior := st.PriorCloses(strategy.PriorCloseCount)
	ma5 := s.rng.CalcMA5(append(prior, price))
	if !ma5.Set {
		s.log.Debug().Str("symbol", code).Int("closes", len(prior)).Msg("insufficient history for MA5")
		return
	}
	s.log.Debug().Str("symbol", code).Float64("price", price).Float64("ma5", ma5.Value).Msg("tick")
	s.dispatcher.EvaluateAndDispatch(st.Symbol, price, ma5, now, s.opts.BuyAlertInterval)
}

func (s *Scheduler) evaluateHeld(ctx context.Context, now time.Time, today string) {
	var codes []string
	for _, st := range s.held {
		if st.Today() == today {
			codes = append(codes, st.Symbol.Code)
		}
	}
	if len(codes) == 0 {
		return
	}
	quotes, err := s.data.Quotes(ctx, codes)
	if err != nil {
		s.logDataError(err, "", "realtime quotes")
		return
	}

	for _, st := range s.held {
		if st.Today() != today {
			continue
		}
		q, ok := quotes[st.Symbol.Code]
		if !ok {
			continue
		}
		if q.Name != "" {
			st.Symbol.Name = q.Name
		}
		if !st.UpdatePrice(q.Tick(now), true) {
			continue
		}
		metrics.TicksTotal.WithLabelValues(st.Symbol.Code).Inc()

		sig := st.CheckSellConditions(now, s.opts.SellDebounce)
		if !sig.Fired {
			if sig.Reason != "" {
				s.log.Debug().Str("symbol", st.Symbol.Code).Msg(sig.Reason)
			}
			continue
		}
		s.dispatcher.DispatchSell(st.Symbol, st.Price().Value, st.MA5(), sig, now)
	}
}

func (s *Scheduler) logDataError(err error, symbol, what string) {
	ev := s.log.Warn()
	if errors.Is(err, collector.ErrNoData) {
		ev = s.log.Debug()
	}
	if symbol != "" {
		ev = ev.Str("symbol", symbol)
	}
	ev.Err(err).Msg(what + " unavailable, skipping")
}

// closedWait sizes the sleep until shortly before the next session, capped by MaxClosedSleep.
func (s *Scheduler) closedWait(ctx context.Context, now time.Time) (time.Duration, time.Time) {
	next, err := s.clock.NextOpen(ctx, now)
	if err != nil {
		s.log.Warn().Err(err).Msg("next session unknown")
		return min(s.opts.MaxClosedSleep, calendarBackoff), time.Time{}
	}
	wait := next.Sub(now) - s.opts.WakeLead
	if wait > s.opts.MaxClosedSleep {
		wait = s.opts.MaxClosedSleep
	}
	if wait < s.opts.TickInterval {
		wait = s.opts.TickInterval
	}
	s.log.Debug().Time("next_open", next).Dur("sleep", wait).Msg("sleeping until next session")
	return wait, next
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
