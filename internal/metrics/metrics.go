// Package metrics exposes Prometheus collectors for the conversion service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	conversionsTotal          *prometheus.CounterVec
	conversionDurationSeconds *prometheus.HistogramVec
	strategyAttemptsTotal     *prometheus.CounterVec
	strategyWinsTotal         *prometheus.CounterVec
	cacheEventsTotal          *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		conversionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readergate_conversions_total",
				Help: "Total number of conversion requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		conversionDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "readergate_conversion_duration_seconds",
				Help:    "Histogram of end-to-end conversion latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"outcome"},
		)

		strategyAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readergate_strategy_attempts_total",
				Help: "Total strategy executions, labeled by strategy and result.",
			},
			[]string{"strategy", "result"},
		)

		strategyWinsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readergate_strategy_wins_total",
				Help: "Races won, labeled by strategy.",
			},
			[]string{"strategy"},
		)

		cacheEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readergate_cache_events_total",
				Help: "URL cache activity, labeled by event (hit, miss, store).",
			},
			[]string{"event"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveConversion records one finished conversion request.
func ObserveConversion(outcome string, duration time.Duration) {
	if conversionsTotal == nil {
		return
	}
	conversionsTotal.WithLabelValues(outcome).Inc()
	conversionDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveStrategyAttempt records one strategy execution.
func ObserveStrategyAttempt(strategy, result string) {
	if strategyAttemptsTotal == nil {
		return
	}
	strategyAttemptsTotal.WithLabelValues(strategy, result).Inc()
}

// ObserveStrategyWin records a race winner.
func ObserveStrategyWin(strategy string) {
	if strategyWinsTotal == nil {
		return
	}
	strategyWinsTotal.WithLabelValues(strategy).Inc()
}

// ObserveCacheEvent records URL cache activity.
func ObserveCacheEvent(event string) {
	if cacheEventsTotal == nil {
		return
	}
	cacheEventsTotal.WithLabelValues(event).Inc()
}
