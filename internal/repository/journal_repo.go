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

const JournalEntriesCollection = "journal_entries"

type JournalRepo struct {
	store database.Store
}

func NewJournalRepo(store database.Store) *JournalRepo {
	return &JournalRepo{store: store}
}

func (r *JournalRepo) Create(ctx context.Context, entry *models.JournalEntry) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	return r.store.Insert(ctx, JournalEntriesCollection, bson.M{
		"id":         entry.ID,
		userKey:      entry.UserID,
		"title":      entry.Title,
		"body":       entry.Body,
		"prompt":     entry.Prompt,
		"created_at": entry.CreatedAt,
		"updated_at": entry.UpdatedAt,
	})
}

func (r *JournalRepo) FindByID(ctx context.Context, id string) (*models.JournalEntry, error) {
	doc, err := r.store.SelectByKey(ctx, JournalEntriesCollection, "id", id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var entry models.JournalEntry
	if err := database.Decode(doc, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update replaces the title and body of an entry.
func (r *JournalRepo) Update(ctx context.Context, id, title, body string) error {
	return r.store.UpdateByKey(ctx, JournalEntriesCollection, "id", id, bson.M{
		"title":      title,
		"body":       body,
		"updated_at": time.Now().UTC(),
	})
}

// ListByUser returns the user's entries, newest first.
func (r *JournalRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	docs, err := r.store.FindMany(ctx, JournalEntriesCollection, userKey, userID, database.FindOptions{
		SortField: "created_at",
		SortDesc:  true,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.JournalEntry, 0, len(docs))
	for _, doc := range docs {
		var e models.JournalEntry
		if err := database.Decode(doc, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// EnsureIndexes creates necessary indexes for the journal_entries collection
func (r *JournalRepo) EnsureIndexes(ctx context.Context) error {
	if err := r.store.EnsureIndex(ctx, JournalEntriesCollection, "id", true); err != nil {
		return err
	}
	return r.store.EnsureIndex(ctx, JournalEntriesCollection, userKey, false)
}
