package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/casting-agency/app"
	"github.com/upb/casting-agency/handlers"
	"github.com/upb/casting-agency/middleware"
	"github.com/upb/casting-agency/utils"
)

// Route declares a protected operation and the permission it requires
type Route struct {
	Method     string
	Pattern    string
	Permission string
	Handler    middleware.Operation
}

// SetupRoutes configures middleware, health endpoints and the given routes,
// each behind the authorization gate
func SetupRoutes(deps *app.Dependencies, routes ...Route) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	// CORS middleware
	r.Use(cors.Handler(corsOptions(deps.Config.Server.CORSAllowedOrigins)))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthCheck())
	r.Get("/readyz", handlers.ReadinessCheck(deps))

	for _, route := range routes {
		r.Method(route.Method, route.Pattern, deps.Gate.Protect(route.Permission, route.Handler))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	credentials := true
	for _, origin := range origins {
		if origin == "*" {
			credentials = false
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id", "WWW-Authenticate"},
		AllowCredentials: credentials,
		MaxAge:           300,
	}
}
