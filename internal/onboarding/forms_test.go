package onboarding

import (
	"strings"
	"testing"

	"haven-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormFor(t *testing.T) {
	for _, s := range models.OnboardingSequence() {
		form, err := FormFor(s)
		switch s {
		case models.StatusNotStarted, models.StatusConfirmation, models.StatusComplete:
			assert.ErrorIs(t, err, ErrInvalidStep, s)
		default:
			require.NoError(t, err, s)
			assert.Equal(t, s, form.Step())
		}
	}
}

func TestBasicInfoFormValidate(t *testing.T) {
	valid := func() *BasicInfoForm {
		return &BasicInfoForm{DisplayName: "Al", Age: ptr(30), Gender: models.GenderFemale, CountryRegion: "US"}
	}
	assert.Nil(t, valid().Validate())

	blankName := valid()
	blankName.DisplayName = "   "
	assert.Nil(t, blankName.Validate())

	tests := []struct {
		name    string
		mutate  func(f *BasicInfoForm)
		field   string
		message string
	}{
		{"short name", func(f *BasicInfoForm) { f.DisplayName = " A " }, "display_name", "Username must be at least 2 characters"},
		{"missing age", func(f *BasicInfoForm) { f.Age = nil }, "age", "Age is required"},
		{"too young", func(f *BasicInfoForm) { f.Age = ptr(12) }, "age", "Please enter a valid age (13-120)"},
		{"too old", func(f *BasicInfoForm) { f.Age = ptr(121) }, "age", "Please enter a valid age (13-120)"},
		{"no gender", func(f *BasicInfoForm) { f.Gender = "" }, "gender", "Please select a gender"},
		{"bad gender", func(f *BasicInfoForm) { f.Gender = "robot" }, "gender", "Please select a gender"},
		{"no country", func(f *BasicInfoForm) { f.CountryRegion = " " }, "country_region", "Country is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			errs := f.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.message, errs[tt.field])
		})
	}
}

func TestUserReasonFormValidate(t *testing.T) {
	assert.Nil(t, (&UserReasonForm{MainReason: []string{"stress_relief", "improve_sleep"}}).Validate())
	assert.Equal(t, "Please select at least one reason", (&UserReasonForm{}).Validate()["main_reason"])
	assert.Equal(t, "Please select up to 3 reasons only", (&UserReasonForm{
		MainReason: []string{"stress_relief", "improve_sleep", "other", "track_progress"},
	}).Validate()["main_reason"])
	assert.Contains(t, (&UserReasonForm{MainReason: []string{"fame"}}).Validate()["main_reason"], "fame")
}

func TestAddictionInfoFormValidate(t *testing.T) {
	assert.Nil(t, (&AddictionInfoForm{AddictionType: models.AddictionNone}).Validate())
	assert.Nil(t, (&AddictionInfoForm{AddictionType: "alcohol", Severity: "mild", Frequency: "daily"}).Validate())

	errs := (&AddictionInfoForm{AddictionType: "alcohol"}).Validate()
	assert.Equal(t, FieldErrors{"severity": "Please select severity", "frequency": "Please select frequency"}, errs)

	errs = (&AddictionInfoForm{}).Validate()
	assert.Equal(t, "Please select an addiction type", errs["addiction_type"])
}

func TestSimpleFormsValidate(t *testing.T) {
	assert.Equal(t, "Please select how you've been feeling", (&MentalHealthInfoForm{}).Validate()["recent_feeling"])
	assert.Nil(t, (&MentalHealthInfoForm{RecentFeeling: "okay"}).Validate())

	assert.Equal(t, "Please select your readiness level", (&MotivationForm{Readiness: "maybe"}).Validate()["readiness"])
	assert.Nil(t, (&MotivationForm{Readiness: "ready"}).Validate())

	assert.Equal(t, FieldErrors{
		"sleep_quality":     "Please select sleep quality",
		"stress_level":      "Please select stress level",
		"routine_stability": "Please select routine stability",
		"relationships":     "Please select relationship quality",
	}, (&LifestyleFactorsForm{}).Validate())

	assert.Equal(t, FieldErrors{
		"support_type":           "Please select at least one support type",
		"notification_frequency": "Please select notification frequency",
	}, (&SupportPreferencesForm{}).Validate())
	assert.Nil(t, (&SupportPreferencesForm{SupportType: []string{"habit_tracker"}, NotificationFrequency: "weekly"}).Validate())
}

func TestEmergencyContactFormValidate(t *testing.T) {
	assert.Nil(t, (&EmergencyContactForm{}).Validate(), "empty form skips the step")
	assert.Nil(t, (&EmergencyContactForm{ContactName: "Sam", ContactEmail: "sam@example.com"}).Validate())

	errs := (&EmergencyContactForm{ContactPhone: "555-0100"}).Validate()
	assert.Equal(t, "Contact name is required if providing contact information", errs["contact_name"])

	for _, bad := range []string{"sam", "sam@", "sam@example", "sam @example.com"} {
		errs := (&EmergencyContactForm{ContactName: "Sam", ContactEmail: bad}).Validate()
		assert.Equal(t, "Please enter a valid email address", errs["contact_email"], bad)
	}
}

func TestFieldErrorsError(t *testing.T) {
	err := FieldErrors{"b": "second", "a": "first"}.Error()
	assert.True(t, strings.HasSuffix(err, "a: first; b: second"), err)
}
