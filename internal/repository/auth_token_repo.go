package repository

import (
	"context"
	"errors"
	"time"

	"haven-backend/internal/database"
	"haven-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const AuthTokensCollection = "auth_tokens"

type AuthTokenRepo struct {
	store database.Store
}

func NewAuthTokenRepo(store database.Store) *AuthTokenRepo {
	return &AuthTokenRepo{store: store}
}

func (r *AuthTokenRepo) Create(ctx context.Context, token *models.AuthToken) error {
	token.CreatedAt = time.Now().UTC()
	return r.store.Insert(ctx, AuthTokensCollection, bson.M{
		"email":      token.Email,
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
		"is_used":    token.IsUsed,
		"created_at": token.CreatedAt,
	})
}

func (r *AuthTokenRepo) FindByToken(ctx context.Context, token string) (*models.AuthToken, error) {
	doc, err := r.store.SelectByKey(ctx, AuthTokensCollection, "token", token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var authToken models.AuthToken
	if err := database.Decode(doc, &authToken); err != nil {
		return nil, err
	}
	return &authToken, nil
}

// MarkUsed consumes an unused token. claimed is false when the token is
// unknown or another request already used it.
func (r *AuthTokenRepo) MarkUsed(ctx context.Context, token string) (claimed bool, err error) {
	err = r.store.CompareAndSet(ctx, AuthTokensCollection, "token", token,
		bson.M{"is_used": false}, bson.M{"is_used": true})
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CountRecentByEmail counts how many tokens were created for an email in the given duration.
// Used for rate limiting.
func (r *AuthTokenRepo) CountRecentByEmail(ctx context.Context, email string, duration time.Duration) (int64, error) {
	since := time.Now().Add(-duration)
	docs, err := r.store.FindMany(ctx, AuthTokensCollection, "email", email, database.FindOptions{
		SortField: "created_at",
		SortDesc:  true,
	})
	if err != nil {
		return 0, err
	}

	var count int64
	for _, doc := range docs {
		created, ok := doc["created_at"].(bson.DateTime)
		if !ok || created.Time().Before(since) {
			// sorted newest first
			break
		}
		count++
	}
	return count, nil
}

// EnsureIndexes creates necessary indexes for the auth_tokens collection
func (r *AuthTokenRepo) EnsureIndexes(ctx context.Context) error {
	if err := r.store.EnsureIndex(ctx, AuthTokensCollection, "token", true); err != nil {
		return err
	}
	return r.store.EnsureIndex(ctx, AuthTokensCollection, "email", false)
}
