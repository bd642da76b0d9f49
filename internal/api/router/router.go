package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/pizzabot/internal/api"
	m "github.com/RoyceAzure/lab/pizzabot/internal/api/middleware"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// SetupRouter rateLimiter 為 nil 時不限流
func SetupRouter(server *api.Server, rateLimiter limiter.ILimiter, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware(logger))

	r.Get("/healthz", server.HealthHandler.Healthz)

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		if rateLimiter != nil {
			r.Use(m.RateLimitMiddleware(rateLimiter, logger))
		}
		r.Route("/users", func(r chi.Router) {
			r.Get("/", server.UserHandler.ListUsers)
			r.Get("/{id}", server.UserHandler.GetUser)
		})
	})

	_ = chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	})
	return r
}
