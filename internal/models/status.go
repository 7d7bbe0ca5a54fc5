package models

// OnboardingStatus is the persisted progress marker. The empty value means
// onboarding has not started.
type OnboardingStatus string

const (
	StatusNotStarted         OnboardingStatus = ""
	StatusBasicInfo          OnboardingStatus = "basic-info"
	StatusUserReason         OnboardingStatus = "user-reason"
	StatusAddictionInfo      OnboardingStatus = "addiction-info"
	StatusMentalHealthInfo   OnboardingStatus = "mental-health-info"
	StatusMotivation         OnboardingStatus = "motivation"
	StatusLifestyleFactors   OnboardingStatus = "lifestyle-factors"
	StatusSupportPreferences OnboardingStatus = "support-preferences"
	StatusEmergencyContact   OnboardingStatus = "emergency-contact"
	StatusConfirmation       OnboardingStatus = "confirmation"
	StatusComplete           OnboardingStatus = "complete"
)

var onboardingSequence = []OnboardingStatus{
	StatusNotStarted,
	StatusBasicInfo,
	StatusUserReason,
	StatusAddictionInfo,
	StatusMentalHealthInfo,
	StatusMotivation,
	StatusLifestyleFactors,
	StatusSupportPreferences,
	StatusEmergencyContact,
	StatusConfirmation,
	StatusComplete,
}

// OnboardingSequence returns every status in progression order.
func OnboardingSequence() []OnboardingStatus {
	out := make([]OnboardingStatus, len(onboardingSequence))
	copy(out, onboardingSequence)
	return out
}

// Index is the position of s in the sequence, or -1 for unknown values.
func (s OnboardingStatus) Index() int {
	for i, v := range onboardingSequence {
		if v == s {
			return i
		}
	}
	return -1
}

func (s OnboardingStatus) Known() bool {
	return s.Index() >= 0
}

// Terminal reports whether onboarding is finished.
func (s OnboardingStatus) Terminal() bool {
	return s == StatusComplete
}

// ParseOnboardingStatus maps stored text to a status. Anything outside the
// known set, including legacy or corrupt values, maps to StatusNotStarted.
func ParseOnboardingStatus(v string) OnboardingStatus {
	s := OnboardingStatus(v)
	if !s.Known() {
		return StatusNotStarted
	}
	return s
}
