package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/regworks/enroll-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	admissionTotal   *prometheus.CounterVec
	waitlistDepth    *prometheus.GaugeVec
	eventsPublished  prometheus.Counter
	deliveryTotal    *prometheus.CounterVec
	storeDuration    *prometheus.HistogramVec
	casRetries       prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	admittedCount        uint64
	waitlistedCount      uint64
	rejectedCount        uint64
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

	admissionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_decisions_total",
		Help: "Enrollment requests by decision outcome",
	}, []string{"decision"})

	waitlistDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "waitlist_depth",
		Help: "Current waitlist length per class",
	}, []string{"class_id"})

	eventsPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollment_events_published_total",
		Help: "Total enrollment fact records published to the stream",
	})

	deliveryTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "Notification delivery attempts by channel and result",
	}, []string{"channel", "result"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_duration_seconds",
		Help:    "Duration of roster and waitlist store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	casRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admission_cas_retries_total",
		Help: "Seat reservations retried after a lost compare-and-set race",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, admissionTotal, waitlistDepth, eventsPublished, deliveryTotal, storeDuration, casRetries, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		admissionTotal:  admissionTotal,
		waitlistDepth:   waitlistDepth,
		eventsPublished: eventsPublished,
		deliveryTotal:   deliveryTotal,
		storeDuration:   storeDuration,
		casRetries:      casRetries,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordAdmission counts an enrollment request by its decision.
func (m *MetricsService) RecordAdmission(decision string) {
	if m == nil {
		return
	}
	m.admissionTotal.WithLabelValues(decision).Inc()
	switch decision {
	case "ADMITTED":
		atomic.AddUint64(&m.admittedCount, 1)
	case "WAITLISTED":
		atomic.AddUint64(&m.waitlistedCount, 1)
	default:
		atomic.AddUint64(&m.rejectedCount, 1)
	}
}

// RecordCASRetry counts a seat reservation attempt lost to a concurrent writer.
func (m *MetricsService) RecordCASRetry() {
	if m == nil {
		return
	}
	m.casRetries.Inc()
}

// SetWaitlistDepth reports the current waitlist length for a class.
func (m *MetricsService) SetWaitlistDepth(classID int64, depth int) {
	if m == nil {
		return
	}
	m.waitlistDepth.WithLabelValues(fmt.Sprintf("%d", classID)).Set(float64(depth))
}

// RecordEventPublished counts a fact record appended to the stream.
func (m *MetricsService) RecordEventPublished() {
	if m == nil {
		return
	}
	m.eventsPublished.Inc()
}

// RecordDelivery counts a notification delivery attempt.
func (m *MetricsService) RecordDelivery(channel string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.deliveryTotal.WithLabelValues(channel, result).Inc()
}

// ObserveStoreOperation records roster or waitlist store timing.
func (m *MetricsService) ObserveStoreOperation(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics suitable for operational endpoints.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		Admitted:                 atomic.LoadUint64(&m.admittedCount),
		Waitlisted:               atomic.LoadUint64(&m.waitlistedCount),
		Rejected:                 atomic.LoadUint64(&m.rejectedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
