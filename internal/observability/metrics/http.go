package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal    *prometheus.CounterVec
	signaturesTotal *prometheus.CounterVec
	viewsTotal      *prometheus.CounterVec
	deletesTotal    *prometheus.CounterVec
	uploadBytes     *prometheus.HistogramVec
}

func NewServerMetrics(service string) *ServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsg",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dsg",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dsg",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsg",
			Subsystem: "document",
			Name:      "uploads_total",
			Help:      "Total document upload attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	signaturesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsg",
			Subsystem: "document",
			Name:      "signatures_total",
			Help:      "Total document signing attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	viewsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsg",
			Subsystem: "document",
			Name:      "views_total",
			Help:      "Total document view attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	deletesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsg",
			Subsystem: "document",
			Name:      "deletes_total",
			Help:      "Total document delete attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dsg",
			Subsystem: "document",
			Name:      "upload_bytes",
			Help:      "Distribution of accepted upload payload sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		signaturesTotal,
		viewsTotal,
		deletesTotal,
		uploadBytes,
	)

	return &ServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		uploadsTotal:    uploadsTotal,
		signaturesTotal: signaturesTotal,
		viewsTotal:      viewsTotal,
		deletesTotal:    deletesTotal,
		uploadBytes:     uploadBytes,
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses document identifiers so metric cardinality stays
// bounded by the route table, not by document ids.
func normalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, "/v1/documents/")
	if !ok || rest == "" {
		return path
	}
	if rest == "local" {
		return path
	}
	if _, action, found := strings.Cut(rest, "/"); found {
		return "/v1/documents/{document_id}/" + action
	}
	return "/v1/documents/{document_id}"
}

func (m *ServerMetrics) RecordUpload(service, outcome string, bytes int64) {
	m.uploadsTotal.WithLabelValues(service, normalizeOutcome(outcome)).Inc()
	if bytes > 0 {
		m.uploadBytes.WithLabelValues(service).Observe(float64(bytes))
	}
}

func (m *ServerMetrics) RecordSignature(service, outcome string) {
	m.signaturesTotal.WithLabelValues(service, normalizeOutcome(outcome)).Inc()
}

func (m *ServerMetrics) RecordView(service, outcome string) {
	m.viewsTotal.WithLabelValues(service, normalizeOutcome(outcome)).Inc()
}

func (m *ServerMetrics) RecordDelete(service, outcome string) {
	m.deletesTotal.WithLabelValues(service, normalizeOutcome(outcome)).Inc()
}

func normalizeOutcome(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
