// Package httpapi assembles the chi router for the API server.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/http/handlers"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/middleware"
)

// NewRouter wires middleware and routes. rdb and lookup may be nil; the
// affected middleware degrades gracefully.
func NewRouter(app *handlers.App, rdb *redis.Client, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Cfg.CORSAllowedOrigins),
		middleware.I18N("en", lookup),
		middleware.RateLimit(rdb, app.Cfg.IPRateLimitPerMin, time.Minute, app.Logger),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/v1/auth/login", app.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Cfg.JWTSecret))

		r.Get("/v1/me", app.Me)

		r.Route("/v1/projects", func(r chi.Router) {
			r.Post("/", app.CreateProject)
			r.Get("/", app.ListProjects)
			r.Delete("/{id}", app.DeleteProject)
		})

		r.Route("/v1/assets", func(r chi.Router) {
			r.Post("/upload", app.UploadAsset)
			r.Get("/", app.ListAssets)
			r.Get("/{id}/download", app.DownloadAsset)
			r.Delete("/{id}", app.DeleteAsset)
		})

		r.Post("/v1/generate", app.Generate)
		r.Get("/v1/jobs/{id}", app.GetJob)

		r.Get("/v1/admin/stats", app.AdminStats)
	})

	if app.Local != nil {
		r.Get("/static/*", app.StaticDownload)
	}

	return r
}
