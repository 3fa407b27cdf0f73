package telemetry

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	requestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_count_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	activeRequestsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_active",
			Help: "Number of active HTTP requests",
		},
	)

	// Error metrics
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "error_total",
			Help: "Total number of errors by type and component",
		},
		[]string{"type", "component"},
	)

	// Stake contract metrics
	stakeOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stake_operations_total",
			Help: "Total number of staking contract calls",
		},
		[]string{"operation", "status"},
	)

	// Balance metrics
	balanceReadCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_reads_total",
			Help: "Total number of balance reads by field and status",
		},
		[]string{"field", "status"},
	)

	// Action metrics
	actionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actions_total",
			Help: "Total number of stake/unstake/claim actions by outcome",
		},
		[]string{"action", "status"},
	)

	actionDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "action_duration_seconds",
			Help:    "Duration of actions from submission to confirmation",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"action", "status"},
	)

	activeActionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "actions_active",
			Help: "Number of actions currently awaiting completion",
		},
	)

	// Websocket metrics
	activeWebsocketGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active dashboard websocket connections",
		},
	)
)

// MetricsHandler returns an http.Handler that serves the metrics endpoint
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware wraps an http.Handler and records metrics about the request
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		activeRequestsGauge.Inc()
		defer activeRequestsGauge.Dec()

		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		duration := time.Since(start).Seconds()
		labels := prometheus.Labels{
			"method": r.Method,
			"path":   routePath(r),
			"status": fmt.Sprintf("%d", status),
		}

		requestDurationHistogram.With(labels).Observe(duration)
		requestCounter.With(labels).Inc()
	})
}

// routePath prefers the mux route template so path labels stay bounded.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// RecordStakeOperation records a staking contract call
func RecordStakeOperation(operation string, status string) {
	stakeOperationsCounter.WithLabelValues(operation, status).Inc()
}

// RecordBalanceRead records one balance field read
func RecordBalanceRead(field string, status string) {
	balanceReadCounter.WithLabelValues(field, status).Inc()
}

// RecordAction records the outcome of a stake/unstake/claim action
func RecordAction(action string, status string, duration time.Duration) {
	actionCounter.WithLabelValues(action, status).Inc()
	if duration > 0 {
		actionDurationHistogram.WithLabelValues(action, status).Observe(duration.Seconds())
	}
}

// UpdateActiveActions adjusts the number of in-flight actions
func UpdateActiveActions(delta float64) {
	activeActionsGauge.Add(delta)
}

// RecordWebsocketConnection updates the active websocket connections count
func RecordWebsocketConnection(delta float64) {
	activeWebsocketGauge.Add(delta)
}

// RecordError records an error occurrence by type and component
func RecordError(errorType string, component string) {
	errorCounter.WithLabelValues(errorType, component).Inc()
}
