package models

import (
	"time"
)

type JournalEntry struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title,omitempty" json:"title,omitempty"`
	Body      string    `bson:"body" json:"body"`
	Prompt    string    `bson:"prompt,omitempty" json:"prompt,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
