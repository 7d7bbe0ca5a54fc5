// Package onboarding implements the onboarding questionnaire flow: the step
// sequence and its routes, per-step forms, the guard that keeps a client on
// the step matching its stored progress, and the final confirmation.
package onboarding

import (
	"strings"

	"haven-backend/internal/models"
)

const (
	// MainRoute is the root of the main application.
	MainRoute = "/(tabs)"
	// AuthSegment is the top-level route segment of the unauthenticated entry flow.
	AuthSegment = "(auth)"
	// Segment is the top-level route segment of the onboarding flow.
	Segment = "onboarding"
)

// Next returns the status that follows s. Unknown values are treated as not
// started; complete has no successor and maps to itself.
func Next(s models.OnboardingStatus) models.OnboardingStatus {
	seq := models.OnboardingSequence()
	i := models.ParseOnboardingStatus(string(s)).Index()
	if i == len(seq)-1 {
		return seq[i]
	}
	return seq[i+1]
}

// Previous returns the status that precedes s, or StatusNotStarted for the
// first step and unknown values.
func Previous(s models.OnboardingStatus) models.OnboardingStatus {
	i := models.ParseOnboardingStatus(string(s)).Index()
	if i <= 0 {
		return models.StatusNotStarted
	}
	return models.OnboardingSequence()[i-1]
}

// Route maps a status to the client route for it. Not started and unknown
// values route to the first step.
func Route(s models.OnboardingStatus) string {
	switch s = models.ParseOnboardingStatus(string(s)); s {
	case models.StatusComplete:
		return MainRoute
	case models.StatusNotStarted:
		return "/" + Segment + "/" + string(models.StatusBasicInfo)
	default:
		return "/" + Segment + "/" + string(s)
	}
}

// ParseStep resolves a route segment such as "motivation" to the step it
// names. Only screens of the onboarding flow are steps.
func ParseStep(segment string) (models.OnboardingStatus, bool) {
	s := models.OnboardingStatus(segment)
	if s == models.StatusNotStarted || s == models.StatusComplete || !s.Known() {
		return models.StatusNotStarted, false
	}
	return s, true
}

// segments splits a route like "/onboarding/basic-info" or
// "onboarding/basic-info" into its path segments.
func segments(route string) []string {
	route = strings.Trim(strings.TrimSpace(route), "/")
	if route == "" {
		return nil
	}
	return strings.Split(route, "/")
}

// InFlow reports whether route is inside the onboarding flow.
func InFlow(route string) bool {
	segs := segments(route)
	return len(segs) > 0 && segs[0] == Segment
}
