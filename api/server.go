/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind a proxy
  3. Logger:     Structured request logging (logrus)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /healthz              Liveness
  /api/auth/*           Register and login (public)
  /api/about            About page (public)
  /api/*                Everything else, Bearer token required

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token middleware
  - cli/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/warp/job-tracker/config"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsCfg config.CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-New-Token"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Get("/about", h.GetAbout)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)

			r.Get("/tracker", h.GetTracker)
			r.Post("/tracker", h.SubmitJob)
			r.Get("/job-types", h.ListJobTypes)

			// Job history routes
			r.Route("/history", func(r chi.Router) {
				r.Get("/", h.ListJobHistory)
				r.Put("/{id}", h.UpdateJob)
				r.Delete("/{id}", h.DeleteJob)
			})

			// Absence routes
			r.Route("/absences", func(r chi.Router) {
				r.Get("/", h.ListAbsences)
				r.Post("/", h.CreateAbsence)
				r.Put("/{id}", h.UpdateAbsence)
				r.Delete("/{id}", h.DeleteAbsence)
			})

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Get("/week-history", h.GetWeekHistory)
		})
	})

	return r
}

// requestLogger logs one line per request with its outcome.
func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			entry := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote":     r.RemoteAddr,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			})
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				entry.Error("request failed")
			case ww.Status() >= http.StatusBadRequest:
				entry.Warn("request rejected")
			default:
				entry.Info("request served")
			}
		})
	}
}
