package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"haven-backend/internal/database"
	"haven-backend/internal/models"
	"haven-backend/internal/notify"
	"haven-backend/internal/onboarding"
	"haven-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type onboardingFixture struct {
	router   http.Handler
	repo     *repository.OnboardingRepo
	alerts   *notify.Background
	notifier *recordingNotifier
}

func newOnboardingFixture(t *testing.T, userID string) onboardingFixture {
	t.Helper()
	logger := zap.NewNop()
	repo := repository.NewOnboardingRepo(database.NewMemoryStore())
	notifier := &recordingNotifier{}
	alerts := notify.NewBackground(notifier, logger)
	t.Cleanup(alerts.Wait)

	h := NewOnboardingHandler(repo,
		onboarding.NewFlow(repo, alerts, logger),
		onboarding.NewGuard(repo, 400*time.Millisecond, logger),
		logger)

	r := chi.NewRouter()
	r.Get("/onboarding/status", h.GetStatus)
	r.Put("/onboarding/status", h.UpdateStatus)
	r.Get("/onboarding/guard", h.CheckGuard)
	r.Get("/onboarding/draft", h.GetDraft)
	r.Post("/onboarding/confirm", h.Confirm)
	r.Get("/onboarding/{step}", h.GetStep)
	r.Put("/onboarding/{step}", h.SubmitStep)
	r.Post("/onboarding/{step}/back", h.Back)

	return onboardingFixture{router: asUser(userID, r), repo: repo, alerts: alerts, notifier: notifier}
}

func basicInfoBody() map[string]any {
	return map[string]any{
		"display_name":   "Robin",
		"age":            30,
		"gender":         "prefer_not_to_say",
		"country_region": "US",
	}
}

func TestOnboardingStatus(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")

	w := doJSON(t, fx.router, http.MethodGet, "/onboarding/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusResponse{Status: models.StatusNotStarted, Route: "/onboarding/basic-info"},
		decode[statusResponse](t, w))

	w = doJSON(t, fx.router, http.MethodPut, "/onboarding/status", updateStatusRequest{Status: "motivation"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/onboarding/motivation", decode[statusResponse](t, w).Route)

	w = doJSON(t, fx.router, http.MethodPut, "/onboarding/status", updateStatusRequest{Status: "finished"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	status, err := fx.repo.GetOnboardingStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMotivation, status)
}

func TestOnboardingGuard(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")
	require.NoError(t, fx.repo.UpdateOnboardingStatus(context.Background(), "u1", models.StatusMotivation))

	w := doJSON(t, fx.router, http.MethodGet, "/onboarding/guard?route=/onboarding/basic-info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[guardResponse](t, w)
	assert.True(t, resp.Redirect)
	assert.Equal(t, "/onboarding/motivation", resp.Target)
	assert.EqualValues(t, 400, resp.DelayMS)

	w = doJSON(t, fx.router, http.MethodGet, "/onboarding/guard?route=/onboarding/motivation", nil)
	resp = decode[guardResponse](t, w)
	assert.False(t, resp.Redirect)
	assert.Zero(t, resp.DelayMS)
}

func TestOnboardingSubmitStep(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")

	w := doJSON(t, fx.router, http.MethodPut, "/onboarding/basic-info", basicInfoBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, onboarding.Transition{Status: models.StatusUserReason, Route: "/onboarding/user-reason"},
		decode[onboarding.Transition](t, w))

	w = doJSON(t, fx.router, http.MethodGet, "/onboarding/basic-info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	draft := decode[onboarding.Draft](t, w)
	require.NotNil(t, draft.User)
	assert.Equal(t, 30, draft.User.Age)
	require.NotNil(t, draft.BasicInfo)
	assert.Equal(t, "Robin", draft.BasicInfo.DisplayName)
}

func TestOnboardingSubmitStepValidation(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")
	body := basicInfoBody()
	body["age"] = 10
	delete(body, "country_region")

	w := doJSON(t, fx.router, http.MethodPut, "/onboarding/basic-info", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[validationResponse](t, w)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, onboarding.FieldErrors{
		"age":            "Please enter a valid age (13-120)",
		"country_region": "Country is required",
	}, resp.Fields)

	user, err := fx.repo.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestOnboardingSubmitStepRejectsUnknownRoutes(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")

	w := doJSON(t, fx.router, http.MethodPut, "/onboarding/settings", map[string]any{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, fx.router, http.MethodPut, "/onboarding/confirmation", map[string]any{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, fx.router, http.MethodPut, "/onboarding/motivation", `{"readiness_level": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnboardingGetStepWithoutData(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")

	w := doJSON(t, fx.router, http.MethodGet, "/onboarding/motivation", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOnboardingBackKeepsStatus(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")
	require.NoError(t, fx.repo.UpdateOnboardingStatus(context.Background(), "u1", models.StatusMotivation))

	w := doJSON(t, fx.router, http.MethodPost, "/onboarding/motivation/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, onboarding.Transition{Status: models.StatusMotivation, Route: "/onboarding/mental-health-info"},
		decode[onboarding.Transition](t, w))

	status, err := fx.repo.GetOnboardingStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMotivation, status)
}

func TestOnboardingConfirm(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")

	w := doJSON(t, fx.router, http.MethodPost, "/onboarding/confirm", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required onboarding data", decode[map[string]string](t, w)["error"])

	require.Equal(t, http.StatusOK, doJSON(t, fx.router, http.MethodPut, "/onboarding/basic-info", basicInfoBody()).Code)

	w = doJSON(t, fx.router, http.MethodPost, "/onboarding/confirm", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, stepNotReachedMessage, decode[map[string]string](t, w)["error"])

	require.NoError(t, fx.repo.UpdateOnboardingStatus(context.Background(), "u1", models.StatusConfirmation))
	w = doJSON(t, fx.router, http.MethodPost, "/onboarding/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, onboarding.Transition{Status: models.StatusComplete, Route: onboarding.MainRoute},
		decode[onboarding.Transition](t, w))

	done, err := fx.repo.CheckOnboardingCompleted(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, done)

	w = doJSON(t, fx.router, http.MethodGet, "/onboarding/guard?route=/onboarding/confirmation", nil)
	resp := decode[guardResponse](t, w)
	assert.True(t, resp.Redirect)
	assert.Equal(t, onboarding.MainRoute, resp.Target)
	assert.Zero(t, resp.DelayMS)
}

func TestOnboardingSubmitStepNotReached(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")

	w := doJSON(t, fx.router, http.MethodPut, "/onboarding/motivation", map[string]any{
		"readiness": "ready",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, stepNotReachedMessage, decode[map[string]string](t, w)["error"])

	status, err := fx.repo.GetOnboardingStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotStarted, status)
}

func TestOnboardingCrisisFeelingAlerts(t *testing.T) {
	fx := newOnboardingFixture(t, "u1")
	require.NoError(t, fx.repo.UpdateOnboardingStatus(context.Background(), "u1", models.StatusMentalHealthInfo))

	w := doJSON(t, fx.router, http.MethodPut, "/onboarding/mental-health-info", map[string]any{
		"recent_feeling": models.FeelingCrisis,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	fx.alerts.Wait()
	require.Len(t, fx.notifier.published(), 1)
	assert.Contains(t, fx.notifier.published()[0], "u1")
}
