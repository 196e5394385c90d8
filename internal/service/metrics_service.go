package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the feed sync pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	syncTotal       *prometheus.CounterVec
	syncDuration    prometheus.Histogram
	eventsParsed    prometheus.Histogram
	periodsPersist  prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	syncTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_sync_total",
		Help: "Total feed sync attempts by terminal status",
	}, []string{"status"})

	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_sync_duration_seconds",
		Help:    "Wall-clock duration of feed syncs",
		Buckets: prometheus.DefBuckets,
	})

	eventsParsed := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_events_parsed",
		Help:    "Raw events parsed per feed sync",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	periodsPersist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_periods_persisted",
		Help:    "Merged blocked periods persisted per successful sync",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, syncTotal, syncDuration, eventsParsed, periodsPersist, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		syncTotal:       syncTotal,
		syncDuration:    syncDuration,
		eventsParsed:    eventsParsed,
		periodsPersist:  periodsPersist,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveFeedSync records the terminal outcome of one feed sync.
func (m *MetricsService) ObserveFeedSync(status string, duration time.Duration, events, periods int) {
	if m == nil {
		return
	}
	m.syncTotal.WithLabelValues(status).Inc()
	m.syncDuration.Observe(duration.Seconds())
	m.eventsParsed.Observe(float64(events))
	if status == "succeeded" {
		m.periodsPersist.Observe(float64(periods))
	}
}
