package repository

import (
	"context"
	"errors"
	"time"

	"haven-backend/internal/database"
	"haven-backend/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const MoodCheckInsCollection = "mood_checkins"

type MoodRepo struct {
	store database.Store
}

func NewMoodRepo(store database.Store) *MoodRepo {
	return &MoodRepo{store: store}
}

func (r *MoodRepo) Create(ctx context.Context, checkIn *models.MoodCheckIn) error {
	checkIn.ID = uuid.New().String()
	checkIn.CreatedAt = time.Now().UTC()
	doc := bson.M{
		"id":              checkIn.ID,
		userKey:           checkIn.UserID,
		"feeling":         checkIn.Feeling,
		"idempotency_key": checkIn.IdempotencyKey,
		"created_at":      checkIn.CreatedAt,
	}
	if checkIn.Note != "" {
		doc["note"] = checkIn.Note
	}
	return r.store.Insert(ctx, MoodCheckInsCollection, doc)
}

// FindByIdempotencyKey checks if a check-in with this key already exists (duplicate prevention)
func (r *MoodRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.MoodCheckIn, error) {
	doc, err := r.store.SelectByKey(ctx, MoodCheckInsCollection, "idempotency_key", key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var checkIn models.MoodCheckIn
	if err := database.Decode(doc, &checkIn); err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// ListByUser returns the user's check-ins, newest first.
func (r *MoodRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.MoodCheckIn, error) {
	docs, err := r.store.FindMany(ctx, MoodCheckInsCollection, userKey, userID, database.FindOptions{
		SortField: "created_at",
		SortDesc:  true,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.MoodCheckIn, 0, len(docs))
	for _, doc := range docs {
		var c models.MoodCheckIn
		if err := database.Decode(doc, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Latest returns the most recent check-in, or nil when there is none.
func (r *MoodRepo) Latest(ctx context.Context, userID string) (*models.MoodCheckIn, error) {
	list, err := r.ListByUser(ctx, userID, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// EnsureIndexes creates necessary indexes for the mood_checkins collection
func (r *MoodRepo) EnsureIndexes(ctx context.Context) error {
	if err := r.store.EnsureIndex(ctx, MoodCheckInsCollection, "idempotency_key", true); err != nil {
		return err
	}
	return r.store.EnsureIndex(ctx, MoodCheckInsCollection, userKey, false)
}
