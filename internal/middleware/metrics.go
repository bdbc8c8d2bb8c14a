package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks per-request Prometheus counters and latencies.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authRejections  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"pattern", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pattern", "method"},
		),
		authRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_rejections_total",
				Help: "Total number of rejected requests",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.authRejections)
	return m
}

// Apply wraps the handler to record request metrics. The matched route
// pattern is used as the label so path parameters do not explode the
// cardinality.
func (m *Metrics) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}

		m.requestsTotal.WithLabelValues(pattern, r.Method, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(pattern, r.Method).Observe(time.Since(start).Seconds())

		switch recorder.statusCode {
		case http.StatusUnauthorized:
			m.authRejections.WithLabelValues("unauthorized").Inc()
		case http.StatusForbidden:
			m.authRejections.WithLabelValues("forbidden").Inc()
		}
	})
}
