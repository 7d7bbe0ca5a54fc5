package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"haven-backend/internal/database"
	"haven-backend/internal/models"
	"haven-backend/internal/notify"
	"haven-backend/internal/repository"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) Publish(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return n.err
}

func (n *recordingNotifier) published() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type flowFixture struct {
	flow     *Flow
	alerts   *notify.Background
	repo     *repository.OnboardingRepo
	store    *database.MemoryStore
	notifier *recordingNotifier
}

func newFlowFixture(t *testing.T) flowFixture {
	t.Helper()
	store := database.NewMemoryStore()
	repo := repository.NewOnboardingRepo(store)
	notifier := &recordingNotifier{}
	alerts := notify.NewBackground(notifier, zap.NewNop())
	t.Cleanup(alerts.Wait)
	flow := NewFlow(repo, alerts, zap.NewNop())
	return flowFixture{flow: flow, alerts: alerts, repo: repo, store: store, notifier: notifier}
}

// at stores status as the user's progress.
func (fx flowFixture) at(t *testing.T, status models.OnboardingStatus) {
	t.Helper()
	require.NoError(t, fx.repo.UpdateOnboardingStatus(context.Background(), "u1", status))
}

func allStepForms() []StepForm {
	return []StepForm{
		&BasicInfoForm{DisplayName: "Al", Age: ptr(29), Gender: models.GenderMale, CountryRegion: "US"},
		&UserReasonForm{MainReason: []string{"stress_relief"}},
		&AddictionInfoForm{AddictionType: models.AddictionNone},
		&MentalHealthInfoForm{RecentFeeling: "okay"},
		&MotivationForm{Readiness: "ready"},
		&LifestyleFactorsForm{SleepQuality: "good", StressLevel: "low", RoutineStability: "stable", Relationships: "good"},
		&SupportPreferencesForm{SupportType: []string{"daily_checkins"}, NotificationFrequency: "daily"},
		&EmergencyContactForm{},
	}
}

func TestFlowWalksEveryStep(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	for _, form := range allStepForms() {
		tr, err := fx.flow.Submit(ctx, "u1", form)
		require.NoError(t, err, form.Step())
		assert.Equal(t, Next(form.Step()), tr.Status)
		assert.Equal(t, Route(tr.Status), tr.Route)

		status, err := fx.repo.GetOnboardingStatus(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, tr.Status, status)
	}

	tr, err := fx.flow.Confirm(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Transition{Status: models.StatusComplete, Route: MainRoute}, tr)

	done, err := fx.repo.CheckOnboardingCompleted(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestFlowSubmitValidationWritesNothing(t *testing.T) {
	fx := newFlowFixture(t)

	_, err := fx.flow.Submit(context.Background(), "u1", &MotivationForm{})
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "readiness")
	assert.Zero(t, fx.store.Count(repository.MotivationCollection))
	assert.Zero(t, fx.store.Count(repository.UsersCollection))
}

func TestFlowSubmitNeverMovesStatusBack(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.repo.UpdateOnboardingStatus(ctx, "u1", models.StatusMotivation))

	tr, err := fx.flow.Submit(ctx, "u1", &UserReasonForm{MainReason: []string{"other"}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusMotivation, tr.Status)
	assert.Equal(t, "/onboarding/motivation", tr.Route)
}

func TestFlowSubmitStoreFailure(t *testing.T) {
	fx := newFlowFixture(t)
	fx.at(t, models.StatusMotivation)
	boom := errors.New("unavailable")
	fx.store.FailCollection(repository.MotivationCollection, boom)

	_, err := fx.flow.Submit(context.Background(), "u1", &MotivationForm{Readiness: "ready"})
	require.ErrorIs(t, err, boom)

	status, err := fx.repo.GetOnboardingStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMotivation, status)
}

func TestFlowBackDoesNotWriteStatus(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.repo.UpdateOnboardingStatus(ctx, "u1", models.StatusMotivation))

	tr, err := fx.flow.Back(ctx, "u1", models.StatusMotivation)
	require.NoError(t, err)
	assert.Equal(t, Transition{Status: models.StatusMotivation, Route: "/onboarding/mental-health-info"}, tr)

	tr, err = fx.flow.Back(ctx, "u1", models.StatusBasicInfo)
	require.NoError(t, err)
	assert.Equal(t, "/onboarding/basic-info", tr.Route)

	status, err := fx.repo.GetOnboardingStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMotivation, status)

	_, err = fx.flow.Back(ctx, "u1", "nowhere")
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestFlowConfirmRequiresBasics(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	_, err := fx.flow.Confirm(ctx, "u1")
	assert.ErrorIs(t, err, ErrIncomplete)

	require.NoError(t, fx.repo.SaveBasicInfo(ctx, "u1", models.BasicInfoInput{CountryRegion: ptr("US")}))
	_, err = fx.flow.Confirm(ctx, "u1")
	assert.ErrorIs(t, err, ErrIncomplete, "age is still missing")
}

func TestFlowConfirmAppliesDefaults(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.repo.SaveUser(ctx, "u1", models.UserInput{Age: ptr(40)}))
	require.NoError(t, fx.repo.SaveBasicInfo(ctx, "u1", models.BasicInfoInput{CountryRegion: ptr("NZ")}))
	require.NoError(t, fx.repo.SaveLifestyleFactors(ctx, "u1", models.LifestyleFactorsInput{SleepQuality: ptr("poor")}))
	fx.at(t, models.StatusConfirmation)

	_, err := fx.flow.Confirm(ctx, "u1")
	require.NoError(t, err)

	draft, err := LoadDraft(ctx, fx.repo, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", draft.BasicInfo.DisplayName)
	assert.True(t, draft.BasicInfo.OnboardingCompleted)
	assert.Equal(t, models.GenderPreferNotToSay, draft.User.Gender)
	assert.Equal(t, models.StatusComplete, draft.User.OnboardingStatus)

	want := &models.LifestyleFactors{
		UserID:           "u1",
		SleepQuality:     "poor",
		StressLevel:      "moderate",
		RoutineStability: "somewhat_stable",
		Relationships:    "fair",
	}
	if diff := cmp.Diff(want, draft.LifestyleFactors, cmpopts.IgnoreFields(models.LifestyleFactors{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("lifestyle factors mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, draft.EmergencyContact)
}

// completionFailStore fails the write that sets the status to complete.
type completionFailStore struct {
	*database.MemoryStore
}

func (s completionFailStore) UpdateByKey(ctx context.Context, collection, field, value string, set bson.M) error {
	if collection == repository.UsersCollection && set["onboarding_status"] == string(models.StatusComplete) {
		return errors.New("users write timed out")
	}
	return s.MemoryStore.UpdateByKey(ctx, collection, field, value, set)
}

func TestFlowConfirmPartialCompletion(t *testing.T) {
	store := completionFailStore{MemoryStore: database.NewMemoryStore()}
	repo := repository.NewOnboardingRepo(store)
	flow := NewFlow(repo, notify.NewBackground(&recordingNotifier{}, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	_, err := flow.Submit(ctx, "u1", allStepForms()[0])
	require.NoError(t, err)
	require.NoError(t, repo.UpdateOnboardingStatus(ctx, "u1", models.StatusConfirmation))

	_, err = flow.Confirm(ctx, "u1")
	var ce *repository.CompletionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, repository.UsersCollection, ce.Step)

	done, err := repo.CheckOnboardingCompleted(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, done)

	status, err := repo.GetOnboardingStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmation, status)
}

func TestFlowCrisisNotifies(t *testing.T) {
	fx := newFlowFixture(t)
	fx.at(t, models.StatusMentalHealthInfo)

	_, err := fx.flow.Submit(context.Background(), "u1", &MentalHealthInfoForm{RecentFeeling: models.FeelingCrisis, Struggles: "can't sleep"})
	require.NoError(t, err)
	fx.alerts.Wait()

	msgs := fx.notifier.published()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "u1")
	assert.Contains(t, msgs[0], "can't sleep")
}

func TestFlowCrisisNotifyFailureIsLoggedOnly(t *testing.T) {
	fx := newFlowFixture(t)
	fx.at(t, models.StatusMentalHealthInfo)
	fx.notifier.err = errors.New("channel gone")

	_, err := fx.flow.Submit(context.Background(), "u1", &MentalHealthInfoForm{RecentFeeling: models.FeelingCrisis})
	require.NoError(t, err)
	fx.alerts.Wait()
	assert.Len(t, fx.notifier.published(), 1)
}

func TestFlowLoad(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	got, err := fx.flow.Load(ctx, "u1", models.StatusMotivation)
	require.NoError(t, err)
	assert.Nil(t, got)

	fx.at(t, models.StatusMotivation)
	_, err = fx.flow.Submit(ctx, "u1", &MotivationForm{Readiness: "very_ready"})
	require.NoError(t, err)
	got, err = fx.flow.Load(ctx, "u1", models.StatusMotivation)
	require.NoError(t, err)
	require.IsType(t, &models.Motivation{}, got)
	assert.Equal(t, "very_ready", got.(*models.Motivation).Readiness)

	_, err = fx.flow.Load(ctx, "u1", models.StatusComplete)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestFlowSubmitRejectsSkippedSteps(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	_, err := fx.flow.Submit(ctx, "u1", &MotivationForm{Readiness: "ready"})
	require.ErrorIs(t, err, ErrStepNotReached)

	_, err = fx.flow.Submit(ctx, "u1", allStepForms()[0])
	require.NoError(t, err)

	_, err = fx.flow.Submit(ctx, "u1", &EmergencyContactForm{ContactName: "Sam"})
	require.ErrorIs(t, err, ErrStepNotReached)
	assert.Zero(t, fx.store.Count(repository.EmergencyContactCollection))

	_, err = fx.flow.Confirm(ctx, "u1")
	require.ErrorIs(t, err, ErrStepNotReached)

	status, err := fx.repo.GetOnboardingStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUserReason, status)
	done, err := fx.repo.CheckOnboardingCompleted(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestFlowResubmitClearsFields(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	fx.at(t, models.StatusMotivation)

	_, err := fx.flow.Submit(ctx, "u1", &AddictionInfoForm{AddictionType: "alcohol", Severity: "severe", Frequency: "daily", Goal: "quit"})
	require.NoError(t, err)
	_, err = fx.flow.Submit(ctx, "u1", &AddictionInfoForm{AddictionType: models.AddictionNone})
	require.NoError(t, err)

	addiction, err := fx.repo.GetAddictionInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.AddictionNone, addiction.AddictionType)
	assert.Empty(t, addiction.Severity)
	assert.Empty(t, addiction.Frequency)
	assert.Nil(t, addiction.Goal)

	_, err = fx.flow.Submit(ctx, "u1", &MentalHealthInfoForm{RecentFeeling: "struggling", Struggles: "panic"})
	require.NoError(t, err)
	_, err = fx.flow.Submit(ctx, "u1", &MentalHealthInfoForm{RecentFeeling: "okay"})
	require.NoError(t, err)

	mental, err := fx.repo.GetMentalHealthInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, mental.Struggles)
	assert.Equal(t, "okay", mental.RecentFeeling)
}
