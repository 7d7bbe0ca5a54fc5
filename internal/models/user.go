package models

import (
	"time"
)

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderPreferNotToSay:
		return true
	}
	return false
}

const (
	MinAge = 13
	MaxAge = 120
)

// User is the account record. It is created at first login and carries the
// onboarding progress marker.
type User struct {
	UserID           string           `bson:"user_id" json:"user_id"`
	Email            string           `bson:"email,omitempty" json:"email,omitempty"`
	Age              int              `bson:"age,omitempty" json:"age,omitempty"`
	Gender           Gender           `bson:"gender,omitempty" json:"gender,omitempty"`
	OnboardingStatus OnboardingStatus `bson:"onboarding_status" json:"onboarding_status"`
	CreatedAt        time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `bson:"updated_at" json:"updated_at"`
}

// UserInput is a partial update of a User; nil fields are left unchanged.
type UserInput struct {
	Email  *string `bson:"email,omitempty" json:"email,omitempty"`
	Age    *int    `bson:"age,omitempty" json:"age,omitempty"`
	Gender *Gender `bson:"gender,omitempty" json:"gender,omitempty"`
}
