package services

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestMetricLabels = []string{"method", "route", "status"}

	requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicore_http_requests_total",
		Help: "Number of api requests handled.",
	}, requestMetricLabels)

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "civicore_http_request_duration_seconds",
		Help:    "Latency of api requests.",
		Buckets: prometheus.DefBuckets,
	}, requestMetricLabels)
)

// instrument records request counts and latencies labelled by the matched
// route pattern, so ids in the path do not create new series.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		labels := prometheus.Labels{"method": r.Method, "route": route, "status": strconv.Itoa(status)}
		requestCount.With(labels).Inc()
		requestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}
