package models

import (
	"time"
)

// AuthToken is a single-use magic-link login token.
type AuthToken struct {
	Email     string    `bson:"email" json:"email"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	IsUsed    bool      `bson:"is_used" json:"is_used"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (t *AuthToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
