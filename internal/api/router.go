package api

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/auth"
	"github.com/UkralStul/peacesync-blog/internal/blog"
	"github.com/UkralStul/peacesync-blog/internal/dataloader"
	"github.com/UkralStul/peacesync-blog/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger - проверка доступности хранилища для /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps - всё, что нужно роутеру.
type Deps struct {
	Service  *blog.Service
	Verifier *auth.Verifier
	Counts   dataloader.Source
	Profiles dataloader.ProfileSource
	Health   Pinger       // может быть nil
	GraphQL  http.Handler // может быть nil, тогда /query не монтируется
	Log      zerolog.Logger
}

// NewRouter собирает chi-роутер с middleware и всеми маршрутами.
func NewRouter(d Deps) http.Handler {
	h := &Handler{svc: d.Service, log: d.Log.With().Str("component", "api").Logger()}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(h.log))
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)

	router.Get("/healthz", healthCheck(d.Health))
	router.Handle("/metrics", promhttp.Handler())

	// зритель и лоадеры запроса нужны и REST, и GraphQL
	requestScope := func(r chi.Router) {
		r.Use(auth.Middleware(d.Verifier, h.writeError))
		r.Use(func(next http.Handler) http.Handler {
			return dataloader.Middleware(d.Counts, d.Profiles, next)
		})
	}

	if d.GraphQL != nil {
		router.Group(func(r chi.Router) {
			requestScope(r)
			r.Handle("/query", d.GraphQL)
		})
	}

	router.Route("/api", func(r chi.Router) {
		requestScope(r)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.listPosts)
			r.Post("/", h.createPost)
			r.Route("/{postID}", func(r chi.Router) {
				r.Get("/", h.getPost)
				r.Put("/", h.updatePost)
				r.Delete("/", h.deletePost)
				r.Post("/moderation", h.moderatePost)
				r.Put("/reaction", h.react)
				r.Get("/comments", h.listComments)
				r.Post("/comments", h.addComment)
			})
		})
		r.Route("/comments/{commentID}", func(r chi.Router) {
			r.Patch("/", h.editComment)
			r.Delete("/", h.deleteComment)
		})
	})

	return router
}

func healthCheck(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, map[string]string{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "peacesync-blog",
		})
	}
}

// requestLogger пишет одну строку на запрос, уровень зависит от статуса.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := log.Info()
			if status >= 400 {
				event = log.Warn()
			}
			if status >= 500 {
				event = log.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("client_ip", r.RemoteAddr).
				Msg("request completed")
		})
	}
}
