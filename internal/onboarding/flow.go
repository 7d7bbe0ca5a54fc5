package onboarding

import (
	"context"
	"errors"
	"fmt"

	"haven-backend/internal/models"
	"haven-backend/internal/notify"
	"haven-backend/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrInvalidStep    = errors.New("unknown onboarding step")
	ErrIncomplete     = errors.New("missing required onboarding data")
	ErrStepNotReached = errors.New("onboarding step not reached yet")
)

// Transition is where a client goes after a flow action.
type Transition struct {
	Status models.OnboardingStatus `json:"status"`
	Route  string                  `json:"route"`
}

// Flow moves a user through the onboarding steps. Every action awaits its
// writes before returning the route to show next, so a guard check made after
// the client navigates sees the new status.
type Flow struct {
	repo   *repository.OnboardingRepo
	alerts *notify.Background
	logger *zap.Logger
}

func NewFlow(repo *repository.OnboardingRepo, alerts *notify.Background, logger *zap.Logger) *Flow {
	return &Flow{repo: repo, alerts: alerts, logger: logger}
}

// Load returns the stored record for step, or nil when there is none yet.
// The basic info step returns the whole draft's user and basic info.
func (f *Flow) Load(ctx context.Context, userID string, step models.OnboardingStatus) (any, error) {
	switch step {
	case models.StatusBasicInfo:
		user, err := f.repo.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		info, err := f.repo.GetBasicInfo(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &Draft{User: user, BasicInfo: info}, nil
	case models.StatusUserReason:
		return nilable(f.repo.GetUserReason(ctx, userID))
	case models.StatusAddictionInfo:
		return nilable(f.repo.GetAddictionInfo(ctx, userID))
	case models.StatusMentalHealthInfo:
		return nilable(f.repo.GetMentalHealthInfo(ctx, userID))
	case models.StatusMotivation:
		return nilable(f.repo.GetMotivation(ctx, userID))
	case models.StatusLifestyleFactors:
		return nilable(f.repo.GetLifestyleFactors(ctx, userID))
	case models.StatusSupportPreferences:
		return nilable(f.repo.GetSupportPreferences(ctx, userID))
	case models.StatusEmergencyContact:
		return nilable(f.repo.GetEmergencyContact(ctx, userID))
	case models.StatusConfirmation:
		return LoadDraft(ctx, f.repo, userID)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidStep, step)
}

// nilable keeps a typed nil pointer from becoming a non-nil interface.
func nilable[T any](v *T, err error) (any, error) {
	if v == nil || err != nil {
		return nil, err
	}
	return v, nil
}

// Submit validates and saves a step form, then advances the stored status to
// the step after it. Only steps up to the stored status can be submitted, so
// the questionnaire is answered in order; an earlier step may be resubmitted
// and leaves the status where it is. A validation failure returns FieldErrors
// and writes nothing.
func (f *Flow) Submit(ctx context.Context, userID string, form StepForm) (Transition, error) {
	if errs := form.Validate(); errs != nil {
		return Transition{}, errs
	}

	current, err := f.repo.GetOnboardingStatus(ctx, userID)
	if err != nil {
		return Transition{}, err
	}
	if !reached(current, form.Step()) {
		return Transition{}, fmt.Errorf("%w: %s while at %q", ErrStepNotReached, form.Step(), current)
	}

	if err := form.save(ctx, f.repo, userID); err != nil {
		return Transition{}, fmt.Errorf("save %s: %w", form.Step(), err)
	}

	if mh, ok := form.(*MentalHealthInfoForm); ok && mh.RecentFeeling == models.FeelingCrisis {
		f.alerts.Publish(notify.CrisisMessage(userID, "onboarding", mh.Struggles))
	}

	next := Next(form.Step())
	if next.Index() > current.Index() {
		if err := f.repo.UpdateOnboardingStatus(ctx, userID, next); err != nil {
			return Transition{}, fmt.Errorf("advance to %s: %w", next, err)
		}
		current = next
	}
	return Transition{Status: current, Route: Route(current)}, nil
}

// reached reports whether a user at status may act on step. Not started
// counts as being on the first step.
func reached(status, step models.OnboardingStatus) bool {
	return step.Index() <= max(status.Index(), models.StatusBasicInfo.Index())
}

// Back returns the route of the step before step. The stored status is not
// changed.
func (f *Flow) Back(ctx context.Context, userID string, step models.OnboardingStatus) (Transition, error) {
	if _, ok := ParseStep(string(step)); !ok {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}
	current, err := f.repo.GetOnboardingStatus(ctx, userID)
	if err != nil {
		return Transition{}, err
	}
	return Transition{Status: current, Route: Route(Previous(step))}, nil
}

// Confirm finishes onboarding: it saves the stored draft with defaults for
// unset fields and marks onboarding complete. It returns ErrIncomplete when
// the user's age or basic info is missing, and ErrStepNotReached before the
// user has reached the confirmation step.
func (f *Flow) Confirm(ctx context.Context, userID string) (Transition, error) {
	draft, err := LoadDraft(ctx, f.repo, userID)
	if err != nil {
		return Transition{}, err
	}
	if !draft.Complete() {
		return Transition{}, ErrIncomplete
	}
	if !reached(draft.User.OnboardingStatus, models.StatusConfirmation) {
		return Transition{}, fmt.Errorf("%w: confirmation while at %q", ErrStepNotReached, draft.User.OnboardingStatus)
	}
	if err := draft.Save(ctx, f.repo, userID); err != nil {
		return Transition{}, fmt.Errorf("save onboarding draft: %w", err)
	}
	if err := f.repo.MarkOnboardingComplete(ctx, userID); err != nil {
		var ce *repository.CompletionError
		if errors.As(err, &ce) {
			f.logger.Error("onboarding completion partially applied",
				zap.String("user_id", userID), zap.String("failed_write", ce.Step), zap.Error(ce.Err))
		}
		return Transition{}, err
	}
	return Transition{Status: models.StatusComplete, Route: MainRoute}, nil
}
