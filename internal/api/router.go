package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hugh/go-companies/internal/api/handlers"
	"github.com/hugh/go-companies/internal/api/middleware"
	"github.com/hugh/go-companies/internal/auth"
	"github.com/hugh/go-companies/internal/events"
	"github.com/hugh/go-companies/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
	limiter *middleware.RateLimiter
}

type RouterConfig struct {
	DB              *gorm.DB
	Redis           *redis.Client
	Logger          *slog.Logger
	JWTService      *auth.JWTService
	AuthService     auth.Authenticator
	Stores          *store.Stores
	Events          events.Publisher     // nil disables publishing
	MetricsRegistry *prometheus.Registry // nil gets a private registry
	AllowedOrigins  []string             // CORS allowed origins
	RateLimitReqs   int                  // Rate limit requests per window
	RateLimitWindow time.Duration
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()
	router := &Router{Router: r}

	publisher := cfg.Events
	if publisher == nil {
		publisher = events.Noop{}
	}
	registry := cfg.MetricsRegistry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := middleware.NewHTTPMetrics(registry)

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(metrics.Middleware)
	r.Use(chimw.StripSlashes)

	// Anonymous traffic is limited per address, authenticated traffic per user.
	// Both key spaces share one limiter.
	limitBy := func(middleware.KeyFunc) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.RateLimitReqs > 0 {
		router.limiter = middleware.NewRateLimiter(cfg.RateLimitReqs, cfg.RateLimitWindow)
		limitBy = func(key middleware.KeyFunc) func(http.Handler) http.Handler {
			return middleware.RateLimit(router.limiter, key)
		}
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	stores := cfg.Stores
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Logger)
	companyHandler := handlers.NewCompanyHandler(stores.Companies, stores.Users, stores.Posts, publisher, cfg.Logger)
	userHandler := handlers.NewUserHandler(stores.Users, stores.Companies, publisher, cfg.Logger)
	postHandler := handlers.NewPostHandler(stores.Posts, stores.Users, publisher, cfg.Logger)

	r.Group(func(r chi.Router) {
		r.Use(limitBy(middleware.ByIP))

		// Operational endpoints (no auth required)
		r.Get("/health", healthHandler.Health)
		r.Get("/ready", healthHandler.Ready)
		r.Handle("/metrics", metrics.Handler())

		r.Post("/users/user/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTService, cfg.AuthService))
		r.Use(limitBy(middleware.ByUser))

		// Any authenticated user
		r.Get("/companies/my_company", companyHandler.MyCompany)
		r.Get("/posts/company", postHandler.CompanyPosts)
		r.Post("/posts/post/create", postHandler.Create)
		r.Get("/users/user/account", userHandler.Account)
		r.Patch("/users/user/account", userHandler.UpdateAccount)

		// Post owner or admin tier
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePostOwner(stores.Posts))
			r.Get("/posts/post/{id}", postHandler.Get)
			r.Patch("/posts/post/{id}", postHandler.Update)
			r.Delete("/posts/post/{id}", postHandler.Delete)
		})
		r.With(middleware.RequireBulkPostOwner(stores.Posts)).Patch("/posts/bulk_update", postHandler.BulkUpdate)

		// Admin tier
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminTier)

			r.Get("/companies/all/{view}", companyHandler.List)
			r.Post("/companies/company/create", companyHandler.Create)
			r.Get("/companies/company/{id}", companyHandler.Get)
			r.Patch("/companies/company/{id}", companyHandler.Update)

			r.Get("/posts/all", postHandler.List)

			r.Get("/users/all", userHandler.List)
			r.Post("/users/user/create", userHandler.Create)
			r.Get("/users/user/{id}", userHandler.Get)
			r.Patch("/users/user/{id}", userHandler.Update)
			r.Delete("/users/user/{id}", userHandler.Delete)
		})
	})

	return router
}

// Close releases background resources held by the router.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Stop()
	}
}
