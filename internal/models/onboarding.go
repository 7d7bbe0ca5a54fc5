package models

import (
	"slices"
	"time"
)

// Option catalogs offered by the onboarding questionnaire.
var (
	ReasonOptions = []string{
		"stop_addiction", "reduce_substance_use", "maintain_sobriety", "mental_health_support",
		"anxiety_management", "depression_help", "stress_relief", "build_healthy_habits",
		"improve_sleep", "increase_motivation", "track_progress", "daily_support",
		"relapse_prevention", "emotional_regulation", "general_wellness", "other",
	}
	AddictionTypeOptions = []string{
		AddictionNone, "alcohol", "tobacco", "cannabis", "prescription_drugs",
		"illegal_drugs", "gambling", "internet", "other",
	}
	SeverityOptions              = []string{"mild", "moderate", "severe", "critical"}
	FrequencyOptions             = []string{"daily", "weekly", "monthly", "occasionally"}
	FeelingOptions               = []string{"good", "okay", "struggling", FeelingCrisis}
	ReadinessOptions             = []string{"not_ready", "thinking_about_it", "ready", "very_ready"}
	SleepQualityOptions          = []string{"poor", "fair", "good", "excellent"}
	StressLevelOptions           = []string{"low", "moderate", "high", "extreme"}
	RoutineStabilityOptions      = []string{"unstable", "somewhat_stable", "stable", "very_stable"}
	RelationshipOptions          = []string{"poor", "fair", "good", "excellent"}
	SupportTypeOptions           = []string{"daily_checkins", "habit_tracker", "journaling_prompts"}
	NotificationFrequencyOptions = []string{"none", "daily", "weekly", "monthly"}
)

const (
	AddictionNone = "none"
	FeelingCrisis = "crisis"
	MaxReasons    = 3
)

// OneOf reports whether v is in options.
func OneOf(v string, options []string) bool {
	return slices.Contains(options, v)
}

// Nulls names stored fields a save writes as null. Inputs embed it so a
// resubmitted form can clear values the user removed.
type Nulls []string

func (n Nulls) NullFields() []string { return n }

type BasicInfo struct {
	UserID              string    `bson:"user_id" json:"user_id"`
	DisplayName         string    `bson:"display_name,omitempty" json:"display_name,omitempty"`
	CountryRegion       string    `bson:"country_region" json:"country_region"`
	OnboardingCompleted bool      `bson:"onboarding_completed" json:"onboarding_completed"`
	Anonymous           bool      `bson:"anonymous" json:"anonymous"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at" json:"updated_at"`
}

type BasicInfoInput struct {
	DisplayName         *string `bson:"display_name,omitempty" json:"display_name,omitempty"`
	CountryRegion       *string `bson:"country_region,omitempty" json:"country_region,omitempty"`
	OnboardingCompleted *bool   `bson:"onboarding_completed,omitempty" json:"onboarding_completed,omitempty"`
	Anonymous           *bool   `bson:"anonymous,omitempty" json:"anonymous,omitempty"`
}

type UserReason struct {
	UserID     string    `bson:"user_id" json:"user_id"`
	MainReason []string  `bson:"main_reason" json:"main_reason"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

type UserReasonInput struct {
	MainReason []string `bson:"main_reason,omitempty" json:"main_reason,omitempty"`
}

type AddictionInfo struct {
	UserID        string    `bson:"user_id" json:"user_id"`
	AddictionType string    `bson:"addiction_type" json:"addiction_type"`
	Severity      string    `bson:"severity,omitempty" json:"severity,omitempty"`
	Frequency     string    `bson:"frequency,omitempty" json:"frequency,omitempty"`
	Goal          *string   `bson:"goal" json:"goal"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

type AddictionInfoInput struct {
	AddictionType *string `bson:"addiction_type,omitempty" json:"addiction_type,omitempty"`
	Severity      *string `bson:"severity,omitempty" json:"severity,omitempty"`
	Frequency     *string `bson:"frequency,omitempty" json:"frequency,omitempty"`
	Goal          *string `bson:"goal,omitempty" json:"goal,omitempty"`
	Nulls         `bson:"-" json:"-"`
}

type MentalHealthInfo struct {
	UserID        string    `bson:"user_id" json:"user_id"`
	Struggles     *string   `bson:"struggles" json:"struggles"`
	RecentFeeling string    `bson:"recent_feeling" json:"recent_feeling"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

type MentalHealthInfoInput struct {
	Struggles     *string `bson:"struggles,omitempty" json:"struggles,omitempty"`
	RecentFeeling *string `bson:"recent_feeling,omitempty" json:"recent_feeling,omitempty"`
	Nulls         `bson:"-" json:"-"`
}

type Motivation struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Readiness string    `bson:"readiness" json:"readiness"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type MotivationInput struct {
	Readiness *string `bson:"readiness,omitempty" json:"readiness,omitempty"`
}

type LifestyleFactors struct {
	UserID           string    `bson:"user_id" json:"user_id"`
	SleepQuality     string    `bson:"sleep_quality" json:"sleep_quality"`
	StressLevel      string    `bson:"stress_level" json:"stress_level"`
	RoutineStability string    `bson:"routine_stability" json:"routine_stability"`
	Relationships    string    `bson:"relationships" json:"relationships"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

type LifestyleFactorsInput struct {
	SleepQuality     *string `bson:"sleep_quality,omitempty" json:"sleep_quality,omitempty"`
	StressLevel      *string `bson:"stress_level,omitempty" json:"stress_level,omitempty"`
	RoutineStability *string `bson:"routine_stability,omitempty" json:"routine_stability,omitempty"`
	Relationships    *string `bson:"relationships,omitempty" json:"relationships,omitempty"`
}

type SupportPreferences struct {
	UserID                string    `bson:"user_id" json:"user_id"`
	SupportType           []string  `bson:"support_type" json:"support_type"`
	NotificationFrequency string    `bson:"notification_frequency" json:"notification_frequency"`
	CreatedAt             time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time `bson:"updated_at" json:"updated_at"`
}

type SupportPreferencesInput struct {
	SupportType           []string `bson:"support_type,omitempty" json:"support_type,omitempty"`
	NotificationFrequency *string  `bson:"notification_frequency,omitempty" json:"notification_frequency,omitempty"`
}

type EmergencyContact struct {
	UserID       string    `bson:"user_id" json:"user_id"`
	ContactName  string    `bson:"contact_name" json:"contact_name"`
	ContactPhone *string   `bson:"contact_phone" json:"contact_phone"`
	ContactEmail *string   `bson:"contact_email" json:"contact_email"`
	Relationship *string   `bson:"relationship" json:"relationship"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

type EmergencyContactInput struct {
	ContactName  *string `bson:"contact_name,omitempty" json:"contact_name,omitempty"`
	ContactPhone *string `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	ContactEmail *string `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	Relationship *string `bson:"relationship,omitempty" json:"relationship,omitempty"`
	Nulls        `bson:"-" json:"-"`
}
