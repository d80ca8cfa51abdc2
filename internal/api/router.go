package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mrkrexx/404AI/internal/api/middleware"
	"github.com/mrkrexx/404AI/internal/handlers"
)

// NewRouter creates and configures the HTTP router. redisClient may be
// nil; the webhook rate limiter is then disabled.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, redisClient *redis.Client, whitelist []string) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware first to capture all requests.
	r.Use(middleware.Metrics)

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024))

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - the public agent posts from anywhere.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Operator"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limiter := middleware.NewRateLimiter(redisClient, logger, whitelist)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", serveLandingPage)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir()))))

	r.Get("/health", h.Health)

	r.With(limiter.Limit).Post("/webhook/message", h.ReceiveMessage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/messages", h.ListMessages)
		r.Put("/messages/{id}/read", h.MarkMessageRead)
		r.Post("/messages/{id}/respond", h.RespondToMessage)
		r.Get("/stats", h.Stats)
		r.Post("/login", h.Login)
	})

	return r
}

// staticDir returns the path to static files directory.
func staticDir() string {
	if _, err := os.Stat("/app/web/static"); err == nil {
		return "/app/web/static"
	}
	return "web/static"
}

// serveLandingPage serves the main landing page.
func serveLandingPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, staticDir()+"/index.html")
}
