package server

import (
	"context"
	"net/http"
	"time"

	"haven-backend/internal/database"
	"haven-backend/internal/handlers"
	customMiddleware "haven-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Store          database.Store
	Tokens         customMiddleware.TokenValidator
	Auth           *handlers.AuthHandler
	Confirm        *handlers.ConfirmHandler
	Onboarding     *handlers.OnboardingHandler
	Mood           *handlers.MoodHandler
	Journal        *handlers.JournalHandler
	User           *handlers.UserHandler
	AllowedOrigins []string
}

// NewRouter wires the HTTP routes exposed by the backend API.
func NewRouter(logger *zap.Logger, deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", handlers.ServiceKeyHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(logger, deps.Store))

	// Public routes (no auth required)
	r.Post("/auth/request", deps.Auth.RequestLogin)
	r.Get("/auth/verify", deps.Auth.VerifyToken)
	r.Get("/auth/redirect", deps.Auth.RedirectToApp)

	// Service routes (service key checked by the handler)
	r.Post("/functions/confirm-onboarding/basic-info", deps.Confirm.ConfirmBasicInfo)

	// Protected routes (JWT required)
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.JWTAuth(deps.Tokens))

		r.Route("/onboarding", func(r chi.Router) {
			r.Get("/status", deps.Onboarding.GetStatus)
			r.Put("/status", deps.Onboarding.UpdateStatus)
			r.Get("/guard", deps.Onboarding.CheckGuard)
			r.Get("/draft", deps.Onboarding.GetDraft)
			r.Post("/confirm", deps.Onboarding.Confirm)
			r.Get("/{step}", deps.Onboarding.GetStep)
			r.Put("/{step}", deps.Onboarding.SubmitStep)
			r.Post("/{step}/back", deps.Onboarding.Back)
		})

		r.Get("/profile", deps.User.GetProfile)

		r.Post("/mood-checkins", deps.Mood.SubmitCheckIn)
		r.Get("/mood-checkins", deps.Mood.ListCheckIns)

		r.Post("/journal-entries", deps.Journal.CreateEntry)
		r.Get("/journal-entries", deps.Journal.ListEntries)
		r.Put("/journal-entries/{id}", deps.Journal.UpdateEntry)
	})

	return r
}

func healthHandler(logger *zap.Logger, store database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]string{"status": "ok", "service": "haven-backend"}
		if store != nil {
			if err := store.Ping(ctx); err != nil {
				logger.Error("health check failed", zap.Error(err))
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
			}
		}
		writeJSON(w, status, payload)
	}
}
