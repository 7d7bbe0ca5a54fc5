package onboarding

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"haven-backend/internal/models"
	"haven-backend/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps form field names to user-facing messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// StepForm is the submission of one onboarding screen.
type StepForm interface {
	Step() models.OnboardingStatus
	// Validate returns the field errors of the form, or nil.
	Validate() FieldErrors
	save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error
}

// FormFor returns an empty form for step, ready to be decoded into.
func FormFor(step models.OnboardingStatus) (StepForm, error) {
	switch step {
	case models.StatusBasicInfo:
		return &BasicInfoForm{}, nil
	case models.StatusUserReason:
		return &UserReasonForm{}, nil
	case models.StatusAddictionInfo:
		return &AddictionInfoForm{}, nil
	case models.StatusMentalHealthInfo:
		return &MentalHealthInfoForm{}, nil
	case models.StatusMotivation:
		return &MotivationForm{}, nil
	case models.StatusLifestyleFactors:
		return &LifestyleFactorsForm{}, nil
	case models.StatusSupportPreferences:
		return &SupportPreferencesForm{}, nil
	case models.StatusEmergencyContact:
		return &EmergencyContactForm{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidStep, step)
}

// optional returns nil for blank strings and the trimmed value otherwise.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type BasicInfoForm struct {
	DisplayName   string        `json:"display_name"`
	Age           *int          `json:"age"`
	Gender        models.Gender `json:"gender"`
	CountryRegion string        `json:"country_region"`
	Anonymous     *bool         `json:"anonymous,omitempty"`
}

func (f *BasicInfoForm) Step() models.OnboardingStatus { return models.StatusBasicInfo }

func (f *BasicInfoForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if name := strings.TrimSpace(f.DisplayName); name != "" && len([]rune(name)) < 2 {
		errs["display_name"] = "Username must be at least 2 characters"
	}
	switch {
	case f.Age == nil:
		errs["age"] = "Age is required"
	case *f.Age < models.MinAge || *f.Age > models.MaxAge:
		errs["age"] = fmt.Sprintf("Please enter a valid age (%d-%d)", models.MinAge, models.MaxAge)
	}
	if !f.Gender.Valid() {
		errs["gender"] = "Please select a gender"
	}
	if strings.TrimSpace(f.CountryRegion) == "" {
		errs["country_region"] = "Country is required"
	}
	return nilIfEmpty(errs)
}

func (f *BasicInfoForm) save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	gender := f.Gender
	if err := repo.SaveUser(ctx, userID, models.UserInput{Age: f.Age, Gender: &gender}); err != nil {
		return err
	}
	return repo.SaveBasicInfo(ctx, userID, models.BasicInfoInput{
		DisplayName:   optional(f.DisplayName),
		CountryRegion: optional(f.CountryRegion),
		Anonymous:     f.Anonymous,
	})
}

type UserReasonForm struct {
	MainReason []string `json:"main_reason"`
}

func (f *UserReasonForm) Step() models.OnboardingStatus { return models.StatusUserReason }

func (f *UserReasonForm) Validate() FieldErrors {
	errs := FieldErrors{}
	switch {
	case len(f.MainReason) == 0:
		errs["main_reason"] = "Please select at least one reason"
	case len(f.MainReason) > models.MaxReasons:
		errs["main_reason"] = "Please select up to 3 reasons only"
	default:
		for _, r := range f.MainReason {
			if !models.OneOf(r, models.ReasonOptions) {
				errs["main_reason"] = fmt.Sprintf("Unknown reason %q", r)
				break
			}
		}
	}
	return nilIfEmpty(errs)
}

func (f *UserReasonForm) save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	return repo.SaveUserReason(ctx, userID, models.UserReasonInput{MainReason: f.MainReason})
}

type AddictionInfoForm struct {
	AddictionType string `json:"addiction_type"`
	Severity      string `json:"severity"`
	Frequency     string `json:"frequency"`
	Goal          string `json:"goal"`
}

func (f *AddictionInfoForm) Step() models.OnboardingStatus { return models.StatusAddictionInfo }

func (f *AddictionInfoForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if !models.OneOf(f.AddictionType, models.AddictionTypeOptions) {
		errs["addiction_type"] = "Please select an addiction type"
	}
	if f.AddictionType != models.AddictionNone {
		if !models.OneOf(f.Severity, models.SeverityOptions) {
			errs["severity"] = "Please select severity"
		}
		if !models.OneOf(f.Frequency, models.FrequencyOptions) {
			errs["frequency"] = "Please select frequency"
		}
	}
	return nilIfEmpty(errs)
}

func (f *AddictionInfoForm) save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	input := models.AddictionInfoInput{
		AddictionType: &f.AddictionType,
		Goal:          optional(f.Goal),
		Nulls:         models.Nulls{"goal"},
	}
	if f.AddictionType == models.AddictionNone {
		input.Nulls = append(input.Nulls, "severity", "frequency")
	} else {
		input.Severity = &f.Severity
		input.Frequency = &f.Frequency
	}
	return repo.SaveAddictionInfo(ctx, userID, input)
}

type MentalHealthInfoForm struct {
	Struggles     string `json:"struggles"`
	RecentFeeling string `json:"recent_feeling"`
}

func (f *MentalHealthInfoForm) Step() models.OnboardingStatus { return models.StatusMentalHealthInfo }

func (f *MentalHealthInfoForm) Validate() FieldErrors {
	if !models.OneOf(f.RecentFeeling, models.FeelingOptions) {
		return FieldErrors{"recent_feeling": "Please select how you've been feeling"}
	}
	return nil
}

func (f *MentalHealthInfoForm) save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	return repo.SaveMentalHealthInfo(ctx, userID, models.MentalHealthInfoInput{
		Struggles:     optional(f.Struggles),
		RecentFeeling: &f.RecentFeeling,
		Nulls:         models.Nulls{"struggles"},
	})
}

type MotivationForm struct {
	Readiness string `json:"readiness"`
}

func (f *MotivationForm) Step() models.OnboardingStatus { return models.StatusMotivation }

func (f *MotivationForm) Validate() FieldErrors {
	if !models.OneOf(f.Readiness, models.ReadinessOptions) {
		return FieldErrors{"readiness": "Please select your readiness level"}
	}
	return nil
}

func (f *MotivationForm) save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	return repo.SaveMotivation(ctx, userID, models.MotivationInput{Readiness: &f.Readiness})
}

type LifestyleFactorsForm struct {
	SleepQuality     string `json:"sleep_quality"`
	StressLevel      string `json:"stress_level"`
	RoutineStability string `json:"routine_stability"`
	Relationships    string `json:"relationships"`
}

func (f *LifestyleFactorsForm) Step() models.OnboardingStatus { return models.StatusLifestyleFactors }

func (f *LifestyleFactorsForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if !models.OneOf(f.SleepQuality, models.SleepQualityOptions) {
		errs["sleep_quality"] = "Please select sleep quality"
	}
	if !models.OneOf(f.StressLevel, models.StressLevelOptions) {
		errs["stress_level"] = "Please select stress level"
	}
	if !models.OneOf(f.RoutineStability, models.RoutineStabilityOptions) {
		errs["routine_stability"] = "Please select routine stability"
	}
	if !models.OneOf(f.Relationships, models.RelationshipOptions) {
		errs["relationships"] = "Please select relationship quality"
	}
	return nilIfEmpty(errs)
}

func (f *LifestyleFactorsForm) save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	return repo.SaveLifestyleFactors(ctx, userID, models.LifestyleFactorsInput{
		SleepQuality:     &f.SleepQuality,
		StressLevel:      &f.StressLevel,
		RoutineStability: &f.RoutineStability,
		Relationships:    &f.Relationships,
	})
}

type SupportPreferencesForm struct {
	SupportType           []string `json:"support_type"`
	NotificationFrequency string   `json:"notification_frequency"`
}

func (f *SupportPreferencesForm) Step() models.OnboardingStatus {
	return models.StatusSupportPreferences
}

func (f *SupportPreferencesForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if len(f.SupportType) == 0 {
		errs["support_type"] = "Please select at least one support type"
	}
	for _, s := range f.SupportType {
		if !models.OneOf(s, models.SupportTypeOptions) {
			errs["support_type"] = fmt.Sprintf("Unknown support type %q", s)
			break
		}
	}
	if !models.OneOf(f.NotificationFrequency, models.NotificationFrequencyOptions) {
		errs["notification_frequency"] = "Please select notification frequency"
	}
	return nilIfEmpty(errs)
}

func (f *SupportPreferencesForm) save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	return repo.SaveSupportPreferences(ctx, userID, models.SupportPreferencesInput{
		SupportType:           f.SupportType,
		NotificationFrequency: &f.NotificationFrequency,
	})
}

// EmergencyContactForm may be submitted empty to skip the step.
type EmergencyContactForm struct {
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
	Relationship string `json:"relationship"`
}

func (f *EmergencyContactForm) Step() models.OnboardingStatus { return models.StatusEmergencyContact }

func (f *EmergencyContactForm) Validate() FieldErrors {
	name := strings.TrimSpace(f.ContactName)
	email := strings.TrimSpace(f.ContactEmail)
	if name == "" && strings.TrimSpace(f.ContactPhone) == "" && email == "" {
		return nil
	}

	errs := FieldErrors{}
	if name == "" {
		errs["contact_name"] = "Contact name is required if providing contact information"
	}
	if email != "" && !emailPattern.MatchString(email) {
		errs["contact_email"] = "Please enter a valid email address"
	}
	return nilIfEmpty(errs)
}

func (f *EmergencyContactForm) save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	name := optional(f.ContactName)
	if name == nil {
		return nil
	}
	return repo.SaveEmergencyContact(ctx, userID, models.EmergencyContactInput{
		ContactName:  name,
		ContactPhone: optional(f.ContactPhone),
		ContactEmail: optional(f.ContactEmail),
		Relationship: optional(f.Relationship),
		Nulls:        models.Nulls{"contact_phone", "contact_email", "relationship"},
	})
}

func nilIfEmpty(errs FieldErrors) FieldErrors {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
