package scheduler

import (
	"context"
	"time"

	"MA5Sentinel/internal/calculator"
	"MA5Sentinel/internal/model"
	"MA5Sentinel/internal/recorder"
	"MA5Sentinel/internal/stock"
)

// closedReport logs the off-session numbers once per closed stretch: for watched
// symbols the MA5 of the last five closes and the open price that would sit on
// the next session's MA5; for held symbols the reference levels and MA5.
// No alerts are raised here.
func (s *Scheduler) closedReport(ctx context.Context, now time.Time) {
	day := now.Format(model.DateLayout)

	for _, st := range s.watch {
		if ctx.Err() != nil {
			return
		}
		code := st.Symbol.Code
		bars, err := s.data.DailyBars(ctx, code, now)
		if err != nil {
			s.logDataError(err, code, "history")
			continue
		}
		closes := calculator.Closes(bars)
		if len(closes) < calculator.MA5Period {
			s.log.Warn().Str("symbol", code).Int("closes", len(closes)).Msg("not enough closes for MA5")
			continue
		}
		last := closes[len(closes)-calculator.MA5Period:]
		ma5 := s.rng.CalcMA5(last)
		open, err := s.rng.CalcOpenPrice(last[1:])
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", code).Msg("open price")
			continue
		}
		s.log.Info().
			Str("symbol", code).
			Str("name", st.Symbol.DisplayName()).
			Float64("ma5", ma5.Value).
			Float64("open_price", open).
			Msg("off-session MA5 and lowest open inside next MA5")
		s.record(&recorder.SessionSnapshot{
			Symbol:    code,
			Name:      st.Symbol.Name,
			Date:      day,
			MA5:       ma5,
			OpenPrice: model.NewLevel(open),
			TakenAt:   now,
		})
	}

	s.refreshHeld(ctx, now, day)
}

// refreshHeld stores one quote snapshot per held symbol and logs its reference levels.
func (s *Scheduler) refreshHeld(ctx context.Context, now time.Time, day string) {
	if len(s.held) == 0 {
		return
	}
	codes := make([]string, len(s.held))
	for i, st := range s.held {
		codes[i] = st.Symbol.Code
	}
	quotes, err := s.data.Quotes(ctx, codes)
	if err != nil {
		s.logDataError(err, "", "snapshot quotes")
	}

	for _, st := range s.held {
		if q, ok := quotes[st.Symbol.Code]; ok {
			st.RefreshSnapshot(q)
		}
		s.logHeld(st)
		s.record(&recorder.SessionSnapshot{
			Symbol:  st.Symbol.Code,
			Name:    st.Symbol.Name,
			Held:    true,
			Date:    day,
			MA5:     st.MA5(),
			Ref:     st.Reference(),
			Price:   st.Snapshot().Price,
			TakenAt: now,
		})
	}
}

func (s *Scheduler) logHeld(st *stock.State) {
	ref := st.Reference()
	if !ref.Complete() {
		s.log.Warn().Str("symbol", st.Symbol.Code).Str("ref_date", ref.Date).Msg("reference levels unavailable")
		return
	}
	ev := s.log.Info().
		Str("symbol", st.Symbol.Code).
		Str("name", st.Symbol.DisplayName()).
		Str("ref_date", ref.Date).
		Float64("high", ref.High.Value).
		Float64("low", ref.Low.Value).
		Float64("open", ref.Open.Value)
	if ma := st.MA5(); ma.Set {
		ev = ev.Float64("ma5", ma.Value)
	}
	ev.Msg("holding reference levels")
}

func (s *Scheduler) record(snap *recorder.SessionSnapshot) {
	if err := s.recorder.RecordSnapshot(snap); err != nil {
		s.log.Warn().Err(err).Str("symbol", snap.Symbol).Msg("record snapshot")
	}
}
