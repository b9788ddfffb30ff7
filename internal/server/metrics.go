package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"upload-service/internal/upload"
)

// Metrics holds the service's Prometheus collectors on a private registry,
// so several servers (tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploads         *prometheus.CounterVec
	uploadBytes     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
}

func NewMetrics(build BuildInfo) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upload_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_stored_total",
			Help: "Uploads accepted and written to storage",
		}, []string{"kind"}),

		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_stored_bytes_total",
			Help: "Bytes written to storage by accepted uploads",
		}, []string{"kind"}),

		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Uploads rejected, by reason",
		}, []string{"kind", "reason"}),
	}

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "upload_build_info",
		Help:        "Build version and commit",
		ConstLabels: prometheus.Labels{"version": build.Version, "commit": build.Commit},
	})
	info.Set(1)

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.uploads,
		m.uploadBytes,
		m.rejections,
		info,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest counts one finished request. An empty route means no
// pattern matched.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordUpload counts an accepted upload of n bytes.
func (m *Metrics) RecordUpload(kind upload.Kind, n int64) {
	m.uploads.WithLabelValues(string(kind)).Inc()
	m.uploadBytes.WithLabelValues(string(kind)).Add(float64(n))
}

// RecordRejection counts a refused upload.
func (m *Metrics) RecordRejection(kind upload.Kind, reason string) {
	m.rejections.WithLabelValues(string(kind), reason).Inc()
}
