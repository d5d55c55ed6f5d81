// Package metrics exposes Prometheus collectors for the monitor loop.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ma5_ticks_total", Help: "Realtime ticks applied per symbol"},
		[]string{"symbol"},
	)
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ma5_alerts_total", Help: "Alerts dispatched"},
		[]string{"kind", "condition"},
	)
	NotifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ma5_notify_failures_total", Help: "Notification deliveries that failed"},
		[]string{"channel"},
	)
	GatewayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ma5_gateway_errors_total", Help: "Market-data gateway call failures"},
		[]string{"operation"},
	)
	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ma5_gateway_duration_seconds",
			Help:    "Market-data gateway call duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ma5_pass_duration_seconds",
			Help:    "Duration of one full open-market pass",
			Buckets: prometheus.DefBuckets,
		},
	)
	MarketOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "ma5_market_open", Help: "1 while the session clock reports an open market"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, AlertsTotal, NotifyFailures, GatewayErrors, GatewayLatency, PassDuration, MarketOpen)
}

// ObserveGateway records latency and, on failure, an error for a gateway operation.
func ObserveGateway(op string, started time.Time, err error) {
	GatewayLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if err != nil {
		GatewayErrors.WithLabelValues(op).Inc()
	}
}

// SetMarketOpen flips the market-open gauge.
func SetMarketOpen(open bool) {
	if open {
		MarketOpen.Set(1)
		return
	}
	MarketOpen.Set(0)
}

// Serve starts the /metrics endpoint in the background. An empty addr disables it.
func Serve(addr string, log zerolog.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}
