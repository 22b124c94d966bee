package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики блога, экспортируемые в Prometheus.
var (
	ModerationActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_moderation_actions_total",
			Help: "Moderation actions by action and result",
		},
		[]string{"action", "result"},
	)

	EnrichmentFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_enrichment_failures_total",
			Help: "Enrichment sub-queries that failed and fell back to defaults",
		},
		[]string{"kind"},
	)

	ReactionTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_reaction_toggles_total",
			Help: "Reaction toggles by direction",
		},
		[]string{"reacted"},
	)

	ProfileCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_profile_cache_lookups_total",
			Help: "Author profile cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route", "status"},
	)
)

// Middleware пишет длительность запросов. Маршрут берётся из шаблона chi,
// чтобы ID постов не раздували кардинальность.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
