package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the intake
// API: HTTP traffic plus the domain counters that matter for a relief
// campaign (submissions and timeline writes).
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	submissions     prometheus.Counter
	timelineWrites  *prometheus.CounterVec
	timelineErrors  prometheus.Counter
	otpMails        prometheus.Counter
}

// NewMetricsService registers the collectors.
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

	submissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "support_requests_submitted_total",
		Help: "Total public support request submissions",
	})

	timelineWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_entries_total",
		Help: "Timeline entries written, by event type",
	}, []string{"event_type"})

	timelineErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_write_failures_total",
		Help: "Timeline writes that failed after the field update succeeded",
	})

	otpMails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otp_mails_queued_total",
		Help: "Verification mails handed to the dispatch queue",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, submissions, timelineWrites, timelineErrors, otpMails, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		submissions:     submissions,
		timelineWrites:  timelineWrites,
		timelineErrors:  timelineErrors,
		otpMails:        otpMails,
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordSubmission counts a public intake submission.
func (m *MetricsService) RecordSubmission() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}

// RecordTimelineWrite counts a successful timeline append.
func (m *MetricsService) RecordTimelineWrite(eventType string) {
	if m == nil {
		return
	}
	m.timelineWrites.WithLabelValues(eventType).Inc()
}

// RecordTimelineFailure counts a timeline append that failed after its
// field update had already been committed.
func (m *MetricsService) RecordTimelineFailure() {
	if m == nil {
		return
	}
	m.timelineErrors.Inc()
}

// RecordOTPMail counts a queued verification mail.
func (m *MetricsService) RecordOTPMail() {
	if m == nil {
		return
	}
	m.otpMails.Inc()
}
