// Package alert decides when a buy alert is due and hands alerts to the
// notifier without blocking the monitor loop.
package alert

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MA5Sentinel/internal/metrics"
	"MA5Sentinel/internal/model"
	"MA5Sentinel/internal/notifier"
	"MA5Sentinel/internal/recorder"
	"MA5Sentinel/internal/strategy"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher owns the buy-alert map. Evaluate and dispatch calls come from the
// scheduler goroutine only; delivery runs on detached workers that see nothing
// but the captured Alert.
type Dispatcher struct {
	rng         *strategy.PriceRange
	notifier    notifier.Notifier
	recorder    recorder.Recorder
	log         zerolog.Logger
	sendTimeout time.Duration

	lastBuy map[string]time.Time
	wg      sync.WaitGroup
	sent    atomic.Int64
}

// NewDispatcher creates a dispatcher. A nil recorder disables the journal.
func NewDispatcher(rng *strategy.PriceRange, n notifier.Notifier, rec recorder.Recorder, log zerolog.Logger) *Dispatcher {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Dispatcher{
		rng:         rng,
		notifier:    n,
		recorder:    rec,
		log:         log,
		sendTimeout: defaultSendTimeout,
		lastBuy:     make(map[string]time.Time),
	}
}

// EvaluateAndDispatch emits a buy alert when price sits in the MA5 band and no
// alert for sym went out within minInterval. Leaving the band clears the record
// so the next entry alerts immediately. Reports whether an alert was dispatched.
func (d *Dispatcher) EvaluateAndDispatch(sym model.Symbol, price float64, ma5 model.Level, now time.Time, minInterval time.Duration) bool {
	if !d.rng.IsInRange(price, ma5) {
		delete(d.lastBuy, sym.Code)
		return false
	}
	if last, ok := d.lastBuy[sym.Code]; ok && now.Sub(last) < minInterval {
		return false
	}
	d.lastBuy[sym.Code] = now

	lower, upper := d.rng.Bounds(ma5.Value)
	d.dispatch(model.Alert{
		ID:     uuid.NewString(),
		Kind:   model.AlertBuy,
		Symbol: sym.Code,
		Name:   sym.DisplayName(),
		Reason: "price inside MA5 band",
		Price:  price,
		MA5:    ma5.Value,
		Lower:  lower,
		Upper:  upper,
		At:     now,
	})
	return true
}

// DispatchSell hands a fired sell signal to the notifier. Debounce already happened in the symbol state.
func (d *Dispatcher) DispatchSell(sym model.Symbol, price float64, ma5 model.Level, sig model.SellSignal, now time.Time) {
	if !sig.Fired {
		return
	}
	d.dispatch(model.Alert{
		ID:        uuid.NewString(),
		Kind:      model.AlertSell,
		Symbol:    sym.Code,
		Name:      sym.DisplayName(),
		Condition: sig.Condition,
		Reason:    sig.Reason,
		Price:     price,
		MA5:       ma5.Value,
		At:        now,
	})
}

// Sent returns how many alerts have been dispatched.
func (d *Dispatcher) Sent() int64 { return d.sent.Load() }

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) dispatch(a model.Alert) {
	d.sent.Add(1)
	metrics.AlertsTotal.WithLabelValues(string(a.Kind), string(a.Condition)).Inc()
	d.log.Info().
		Str("alert_id", a.ID).
		Str("kind", string(a.Kind)).
		Str("symbol", a.Symbol).
		Str("condition", string(a.Condition)).
		Float64("price", a.Price).
		Float64("ma5", a.MA5).
		Msg(a.Reason)

	d.wg.Add(1)
	go d.deliver(a)
}

// deliver runs on its own goroutine. Failures stop here.
func (d *Dispatcher) deliver(a model.Alert) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("alert_id", a.ID).Msg("notification worker panicked")
			metrics.NotifyFailures.WithLabelValues("panic").Inc()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	title, body := notifier.FormatAlert(a)
	if err := d.notifier.Notify(ctx, title, body); err != nil {
		metrics.NotifyFailures.WithLabelValues(d.notifier.Name()).Inc()
		d.log.Error().Err(err).Str("alert_id", a.ID).Str("symbol", a.Symbol).Msg("deliver alert")
	}
	if err := d.recorder.RecordAlert(a); err != nil {
		d.log.Warn().Err(err).Str("alert_id", a.ID).Msg("record alert")
	}
}
