package repository

import (
	"context"
	"errors"
	"fmt"

	"haven-backend/internal/database"
	"haven-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	UsersCollection              = "users"
	BasicInfoCollection          = "user_basic_info"
	UserReasonCollection         = "user_reasons"
	AddictionInfoCollection      = "user_addiction_info"
	MentalHealthInfoCollection   = "user_mental_health_info"
	MotivationCollection         = "user_motivation"
	LifestyleFactorsCollection   = "user_lifestyle_factors"
	SupportPreferencesCollection = "user_support_preferences"
	EmergencyContactCollection   = "user_emergency_contacts"
)

// CompletionError reports which write of MarkOnboardingComplete failed. The
// two writes are not atomic, so a failure in the second leaves the basic info
// marked complete while the status is not.
type CompletionError struct {
	Step string
	Err  error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("mark onboarding complete (%s): %v", e.Step, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// OnboardingRepo stores the onboarding questionnaire, one record per user per topic.
type OnboardingRepo struct {
	store              database.Store
	users              entity[models.User]
	basicInfo          entity[models.BasicInfo]
	userReason         entity[models.UserReason]
	addictionInfo      entity[models.AddictionInfo]
	mentalHealthInfo   entity[models.MentalHealthInfo]
	motivation         entity[models.Motivation]
	lifestyleFactors   entity[models.LifestyleFactors]
	supportPreferences entity[models.SupportPreferences]
	emergencyContact   entity[models.EmergencyContact]
}

func NewOnboardingRepo(store database.Store) *OnboardingRepo {
	return &OnboardingRepo{
		store: store,
		users: newEntity[models.User](store, UsersCollection, bson.M{
			"onboarding_status": string(models.StatusNotStarted),
		}),
		basicInfo: newEntity[models.BasicInfo](store, BasicInfoCollection, bson.M{
			"onboarding_completed": false,
			"anonymous":            false,
		}),
		userReason:         newEntity[models.UserReason](store, UserReasonCollection, nil),
		addictionInfo:      newEntity[models.AddictionInfo](store, AddictionInfoCollection, bson.M{"goal": nil}),
		mentalHealthInfo:   newEntity[models.MentalHealthInfo](store, MentalHealthInfoCollection, bson.M{"struggles": nil}),
		motivation:         newEntity[models.Motivation](store, MotivationCollection, nil),
		lifestyleFactors:   newEntity[models.LifestyleFactors](store, LifestyleFactorsCollection, nil),
		supportPreferences: newEntity[models.SupportPreferences](store, SupportPreferencesCollection, nil),
		emergencyContact: newEntity[models.EmergencyContact](store, EmergencyContactCollection, bson.M{
			"contact_phone": nil,
			"contact_email": nil,
			"relationship":  nil,
		}),
	}
}

func (r *OnboardingRepo) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := r.users.get(ctx, userID)
	if user != nil {
		user.OnboardingStatus = models.ParseOnboardingStatus(string(user.OnboardingStatus))
	}
	return user, err
}

func (r *OnboardingRepo) SaveUser(ctx context.Context, userID string, input models.UserInput) error {
	return r.users.save(ctx, userID, input)
}

func (r *OnboardingRepo) GetBasicInfo(ctx context.Context, userID string) (*models.BasicInfo, error) {
	return r.basicInfo.get(ctx, userID)
}

func (r *OnboardingRepo) SaveBasicInfo(ctx context.Context, userID string, input models.BasicInfoInput) error {
	return r.basicInfo.save(ctx, userID, input)
}

func (r *OnboardingRepo) GetUserReason(ctx context.Context, userID string) (*models.UserReason, error) {
	return r.userReason.get(ctx, userID)
}

func (r *OnboardingRepo) SaveUserReason(ctx context.Context, userID string, input models.UserReasonInput) error {
	return r.userReason.save(ctx, userID, input)
}

func (r *OnboardingRepo) GetAddictionInfo(ctx context.Context, userID string) (*models.AddictionInfo, error) {
	return r.addictionInfo.get(ctx, userID)
}

func (r *OnboardingRepo) SaveAddictionInfo(ctx context.Context, userID string, input models.AddictionInfoInput) error {
	return r.addictionInfo.save(ctx, userID, input)
}

func (r *OnboardingRepo) GetMentalHealthInfo(ctx context.Context, userID string) (*models.MentalHealthInfo, error) {
	return r.mentalHealthInfo.get(ctx, userID)
}

func (r *OnboardingRepo) SaveMentalHealthInfo(ctx context.Context, userID string, input models.MentalHealthInfoInput) error {
	return r.mentalHealthInfo.save(ctx, userID, input)
}

func (r *OnboardingRepo) GetMotivation(ctx context.Context, userID string) (*models.Motivation, error) {
	return r.motivation.get(ctx, userID)
}

func (r *OnboardingRepo) SaveMotivation(ctx context.Context, userID string, input models.MotivationInput) error {
	return r.motivation.save(ctx, userID, input)
}

func (r *OnboardingRepo) GetLifestyleFactors(ctx context.Context, userID string) (*models.LifestyleFactors, error) {
	return r.lifestyleFactors.get(ctx, userID)
}

func (r *OnboardingRepo) SaveLifestyleFactors(ctx context.Context, userID string, input models.LifestyleFactorsInput) error {
	return r.lifestyleFactors.save(ctx, userID, input)
}

func (r *OnboardingRepo) GetSupportPreferences(ctx context.Context, userID string) (*models.SupportPreferences, error) {
	return r.supportPreferences.get(ctx, userID)
}

func (r *OnboardingRepo) SaveSupportPreferences(ctx context.Context, userID string, input models.SupportPreferencesInput) error {
	return r.supportPreferences.save(ctx, userID, input)
}

func (r *OnboardingRepo) GetEmergencyContact(ctx context.Context, userID string) (*models.EmergencyContact, error) {
	return r.emergencyContact.get(ctx, userID)
}

func (r *OnboardingRepo) SaveEmergencyContact(ctx context.Context, userID string, input models.EmergencyContactInput) error {
	return r.emergencyContact.save(ctx, userID, input)
}

// GetOnboardingStatus returns the stored progress marker. A missing user row or
// a value outside the known set yields StatusNotStarted.
func (r *OnboardingRepo) GetOnboardingStatus(ctx context.Context, userID string) (models.OnboardingStatus, error) {
	doc, err := r.store.SelectByKey(ctx, UsersCollection, userKey, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.StatusNotStarted, nil
		}
		return models.StatusNotStarted, fmt.Errorf("select %s: %w", UsersCollection, err)
	}
	raw, _ := doc["onboarding_status"].(string)
	return models.ParseOnboardingStatus(raw), nil
}

// UpdateOnboardingStatus writes status unconditionally.
func (r *OnboardingRepo) UpdateOnboardingStatus(ctx context.Context, userID string, status models.OnboardingStatus) error {
	return upsertByKey(ctx, r.store, r.users.schema, userID, bson.M{"onboarding_status": string(status)})
}

// MarkOnboardingComplete flags the basic info as completed and then sets the
// status to complete. The writes are sequential; see CompletionError.
func (r *OnboardingRepo) MarkOnboardingComplete(ctx context.Context, userID string) error {
	completed := true
	if err := r.SaveBasicInfo(ctx, userID, models.BasicInfoInput{OnboardingCompleted: &completed}); err != nil {
		return &CompletionError{Step: BasicInfoCollection, Err: err}
	}
	if err := r.UpdateOnboardingStatus(ctx, userID, models.StatusComplete); err != nil {
		return &CompletionError{Step: UsersCollection, Err: err}
	}
	return nil
}

// CheckOnboardingCompleted reports the basic info completion flag, false when
// there is no basic info yet.
func (r *OnboardingRepo) CheckOnboardingCompleted(ctx context.Context, userID string) (bool, error) {
	info, err := r.GetBasicInfo(ctx, userID)
	if err != nil || info == nil {
		return false, err
	}
	return info.OnboardingCompleted, nil
}

// EnsureIndexes creates the unique user_id index on every onboarding collection.
func (r *OnboardingRepo) EnsureIndexes(ctx context.Context) error {
	indexers := []interface {
		ensureIndexes(context.Context) error
	}{
		r.users, r.basicInfo, r.userReason, r.addictionInfo, r.mentalHealthInfo,
		r.motivation, r.lifestyleFactors, r.supportPreferences, r.emergencyContact,
	}
	for _, ix := range indexers {
		if err := ix.ensureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
