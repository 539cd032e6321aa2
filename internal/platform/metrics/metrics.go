package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workspace_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workspace_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	changePublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workspace_change_publishes_total",
		Help: "Change notifications published to JetStream, by outcome.",
	}, []string{"entity", "result"})

	autosaveFlushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workspace_autosave_flushes_total",
		Help: "Debounced document content persists, by outcome.",
	}, []string{"result"})

	calendarAggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workspace_calendar_aggregations_total",
		Help: "Calendar view aggregation passes, by view mode.",
	}, []string{"view"})

	retentionDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workspace_retention_deletes_total",
		Help: "Archived documents removed by the retention sweeper.",
	})
)

// Middleware records request count and latency labelled with the chi route
// pattern so that path parameters do not explode cardinality.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := strconv.Itoa(ww.Status())
			httpRequestsTotal.WithLabelValues(r.Method, route).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func ObserveChangePublish(entity string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	changePublishesTotal.WithLabelValues(entity, result).Inc()
}

func ObserveAutosaveFlush(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	autosaveFlushesTotal.WithLabelValues(result).Inc()
}

func ObserveCalendarAggregation(view string) {
	calendarAggregationsTotal.WithLabelValues(view).Inc()
}

func AddRetentionDeletes(n int) {
	if n > 0 {
		retentionDeletesTotal.Add(float64(n))
	}
}
