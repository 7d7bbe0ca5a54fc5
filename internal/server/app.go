package server

import (
	"context"
	"fmt"
	"net/http"

	"haven-backend/internal/auth"
	"haven-backend/internal/config"
	"haven-backend/internal/database"
	"haven-backend/internal/handlers"
	"haven-backend/internal/notify"
	"haven-backend/internal/onboarding"
	"haven-backend/internal/repository"

	"go.uber.org/zap"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// App holds the wired repositories, services and router of the backend.
type App struct {
	Handler http.Handler

	alerts   *notify.Background
	indexers map[string]indexer
}

// NewApp wires every component on top of store.
func NewApp(cfg config.Config, store database.Store, mailer notify.Mailer, notifier notify.Notifier, logger *zap.Logger) *App {
	userRepo := repository.NewUserRepo(store)
	tokenRepo := repository.NewAuthTokenRepo(store)
	onboardingRepo := repository.NewOnboardingRepo(store)
	moodRepo := repository.NewMoodRepo(store)
	journalRepo := repository.NewJournalRepo(store)

	alerts := notify.NewBackground(notifier, logger)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	links := auth.NewMagicLinks(tokenRepo, userRepo, issuer, mailer, cfg.Auth.LoginTokenTTL, logger)
	flow := onboarding.NewFlow(onboardingRepo, alerts, logger)
	guard := onboarding.NewGuard(onboardingRepo, cfg.Guard.RedirectDelay, logger)

	router := NewRouter(logger, RouterDependencies{
		Store:          store,
		Tokens:         issuer,
		Auth:           handlers.NewAuthHandler(links, cfg.Auth, logger),
		Confirm:        handlers.NewConfirmHandler(onboardingRepo, cfg.Auth.ServiceKey, logger),
		Onboarding:     handlers.NewOnboardingHandler(onboardingRepo, flow, guard, logger),
		Mood:           handlers.NewMoodHandler(moodRepo, alerts, logger),
		Journal:        handlers.NewJournalHandler(journalRepo, logger),
		User:           handlers.NewUserHandler(userRepo, onboardingRepo, moodRepo, logger),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	return &App{
		Handler: router,
		alerts:  alerts,
		indexers: map[string]indexer{
			"users":       userRepo,
			"auth_tokens": tokenRepo,
			"onboarding":  onboardingRepo,
			"mood":        moodRepo,
			"journal":     journalRepo,
		},
	}
}

// EnsureIndexes creates the indexes of every repository.
func (a *App) EnsureIndexes(ctx context.Context) error {
	for name, ix := range a.indexers {
		if err := ix.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}
	return nil
}

// Drain waits for background notifications to finish.
func (a *App) Drain() {
	a.alerts.Wait()
}
