package onboarding

import (
	"context"
	"time"

	"haven-backend/internal/models"

	"go.uber.org/zap"
)

// StatusReader reads a user's stored onboarding progress.
type StatusReader interface {
	GetOnboardingStatus(ctx context.Context, userID string) (models.OnboardingStatus, error)
}

// Decision is the outcome of a guard check for one route.
type Decision struct {
	Status        models.OnboardingStatus `json:"status"`
	ExpectedRoute string                  `json:"expected_route,omitempty"`
	Redirect      bool                    `json:"redirect"`
	Target        string                  `json:"target,omitempty"`
	Delay         time.Duration           `json:"-"`
}

// Guard decides whether a client showing a route must be sent elsewhere to
// match the user's onboarding progress.
type Guard struct {
	statuses StatusReader
	debounce time.Duration
	logger   *zap.Logger
}

// NewGuard returns a guard that delays step redirects by debounce so they do
// not fight a navigation the client started itself.
func NewGuard(statuses StatusReader, debounce time.Duration, logger *zap.Logger) *Guard {
	return &Guard{statuses: statuses, debounce: debounce, logger: logger}
}

// Check evaluates route for userID. An empty userID means no authenticated
// user, which never redirects. A failed status read counts as not started.
func (g *Guard) Check(ctx context.Context, userID, route string) Decision {
	if userID == "" {
		return Decision{}
	}

	status, err := g.statuses.GetOnboardingStatus(ctx, userID)
	if err != nil {
		g.logger.Warn("onboarding status read failed, assuming not started",
			zap.String("user_id", userID), zap.Error(err))
		status = models.StatusNotStarted
	}

	d := Decision{Status: status, ExpectedRoute: Route(status)}
	segs := segments(route)
	inFlow := len(segs) > 0 && segs[0] == Segment

	if status.Terminal() {
		if inFlow {
			d.Redirect = true
			d.Target = MainRoute
		}
		return d
	}

	if len(segs) > 0 && segs[0] == AuthSegment {
		return d
	}

	current := ""
	if len(segs) > 1 {
		current = "/" + Segment + "/" + segs[1]
	}
	if inFlow && current == d.ExpectedRoute {
		return d
	}

	d.Redirect = true
	d.Target = d.ExpectedRoute
	d.Delay = g.debounce
	return d
}
