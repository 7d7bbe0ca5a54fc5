package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOnboardingStatus(t *testing.T) {
	for _, s := range OnboardingSequence() {
		assert.Equal(t, s, ParseOnboardingStatus(string(s)))
	}
	for _, raw := range []string{"bogus", "COMPLETE", "basic_info", "onboarding/motivation"} {
		assert.Equal(t, StatusNotStarted, ParseOnboardingStatus(raw), raw)
	}
}

func TestOnboardingSequenceOrder(t *testing.T) {
	seq := OnboardingSequence()
	assert.Len(t, seq, 11)
	assert.Equal(t, StatusNotStarted, seq[0])
	assert.Equal(t, StatusComplete, seq[len(seq)-1])
	for i, s := range seq {
		assert.Equal(t, i, s.Index())
	}

	seq[0] = "mutated"
	assert.Equal(t, StatusNotStarted, OnboardingSequence()[0])
}

func TestOnboardingStatusPredicates(t *testing.T) {
	assert.True(t, StatusComplete.Terminal())
	assert.False(t, StatusConfirmation.Terminal())
	assert.False(t, OnboardingStatus("x").Known())
	assert.Equal(t, -1, OnboardingStatus("x").Index())
}

func TestGenderValid(t *testing.T) {
	assert.True(t, GenderMale.Valid())
	assert.True(t, GenderPreferNotToSay.Valid())
	assert.False(t, Gender("other").Valid())
	assert.False(t, Gender("").Valid())
}
