package models

import (
	"time"
)

// MoodCheckIn is one logged mood entry. IdempotencyKey lets a client retry a
// submission without creating a second entry.
type MoodCheckIn struct {
	ID             string    `bson:"id" json:"id"`
	UserID         string    `bson:"user_id" json:"user_id"`
	Feeling        string    `bson:"feeling" json:"feeling"`
	Note           string    `bson:"note,omitempty" json:"note,omitempty"`
	IdempotencyKey string    `bson:"idempotency_key" json:"idempotency_key"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
