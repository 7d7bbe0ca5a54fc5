package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"haven-backend/internal/database"
	"haven-backend/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserRepo resolves login identities to user records in the users collection.
type UserRepo struct {
	store database.Store
}

func NewUserRepo(store database.Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findBy(ctx, userKey, id)
}

func (r *UserRepo) findBy(ctx context.Context, field, value string) (*models.User, error) {
	doc, err := r.store.SelectByKey(ctx, UsersCollection, field, value)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var user models.User
	if err := database.Decode(doc, &user); err != nil {
		return nil, err
	}
	user.OnboardingStatus = models.ParseOnboardingStatus(string(user.OnboardingStatus))
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	if user.UserID == "" {
		user.UserID = uuid.New().String()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	doc := bson.M{
		userKey:             user.UserID,
		"email":             user.Email,
		"onboarding_status": string(user.OnboardingStatus),
		"created_at":        user.CreatedAt,
		"updated_at":        user.UpdatedAt,
	}
	return r.store.Insert(ctx, UsersCollection, doc)
}

func (r *UserRepo) FindOrCreate(ctx context.Context, email string) (*models.User, error) {
	user, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	newUser := &models.User{
		Email:            email,
		OnboardingStatus: models.StatusNotStarted,
	}
	if err := r.Create(ctx, newUser); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// created by a concurrent verification of another token
			return r.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return newUser, nil
}

// EnsureIndexes creates necessary indexes for the users collection
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	if err := r.store.EnsureIndex(ctx, UsersCollection, "email", true); err != nil {
		return err
	}
	return r.store.EnsureIndex(ctx, UsersCollection, userKey, true)
}
