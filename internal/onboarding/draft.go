package onboarding

import (
	"context"
	"fmt"

	"haven-backend/internal/models"
	"haven-backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Draft is everything a user has entered during onboarding so far. It is
// loaded from and saved to the repository explicitly.
type Draft struct {
	User               *models.User               `json:"user,omitempty"`
	BasicInfo          *models.BasicInfo          `json:"basic_info,omitempty"`
	UserReason         *models.UserReason         `json:"user_reason,omitempty"`
	AddictionInfo      *models.AddictionInfo      `json:"addiction_info,omitempty"`
	MentalHealthInfo   *models.MentalHealthInfo   `json:"mental_health_info,omitempty"`
	Motivation         *models.Motivation         `json:"motivation,omitempty"`
	LifestyleFactors   *models.LifestyleFactors   `json:"lifestyle_factors,omitempty"`
	SupportPreferences *models.SupportPreferences `json:"support_preferences,omitempty"`
	EmergencyContact   *models.EmergencyContact   `json:"emergency_contact,omitempty"`
}

// LoadDraft reads every onboarding record of userID concurrently.
func LoadDraft(ctx context.Context, repo *repository.OnboardingRepo, userID string) (*Draft, error) {
	d := &Draft{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { d.User, err = repo.GetUser(ctx, userID); return })
	g.Go(func() (err error) { d.BasicInfo, err = repo.GetBasicInfo(ctx, userID); return })
	g.Go(func() (err error) { d.UserReason, err = repo.GetUserReason(ctx, userID); return })
	g.Go(func() (err error) { d.AddictionInfo, err = repo.GetAddictionInfo(ctx, userID); return })
	g.Go(func() (err error) { d.MentalHealthInfo, err = repo.GetMentalHealthInfo(ctx, userID); return })
	g.Go(func() (err error) { d.Motivation, err = repo.GetMotivation(ctx, userID); return })
	g.Go(func() (err error) { d.LifestyleFactors, err = repo.GetLifestyleFactors(ctx, userID); return })
	g.Go(func() (err error) { d.SupportPreferences, err = repo.GetSupportPreferences(ctx, userID); return })
	g.Go(func() (err error) { d.EmergencyContact, err = repo.GetEmergencyContact(ctx, userID); return })

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load onboarding draft: %w", err)
	}
	return d, nil
}

// Complete reports whether the records required to finish onboarding exist:
// the user's age and the basic info.
func (d *Draft) Complete() bool {
	return d.User != nil && d.User.Age > 0 && d.BasicInfo != nil
}

// Save writes every record present in the draft, filling unset enum fields
// with their defaults. The writes are sequential and stop at the first error.
func (d *Draft) Save(ctx context.Context, repo *repository.OnboardingRepo, userID string) error {
	if r := d.UserReason; r != nil && len(r.MainReason) > 0 {
		if err := repo.SaveUserReason(ctx, userID, models.UserReasonInput{MainReason: r.MainReason}); err != nil {
			return err
		}
	}

	if a := d.AddictionInfo; a != nil {
		input := models.AddictionInfoInput{AddictionType: &a.AddictionType, Goal: a.Goal}
		if a.AddictionType == models.AddictionNone {
			input.Nulls = models.Nulls{"severity", "frequency"}
		} else {
			input.Severity = ptr(orDefault(a.Severity, "mild"))
			input.Frequency = ptr(orDefault(a.Frequency, "occasionally"))
		}
		if err := repo.SaveAddictionInfo(ctx, userID, input); err != nil {
			return err
		}
	}

	if m := d.MentalHealthInfo; m != nil {
		if err := repo.SaveMentalHealthInfo(ctx, userID, models.MentalHealthInfoInput{
			Struggles:     m.Struggles,
			RecentFeeling: ptr(orDefault(m.RecentFeeling, "okay")),
		}); err != nil {
			return err
		}
	}

	if m := d.Motivation; m != nil && m.Readiness != "" {
		if err := repo.SaveMotivation(ctx, userID, models.MotivationInput{Readiness: &m.Readiness}); err != nil {
			return err
		}
	}

	if l := d.LifestyleFactors; l != nil {
		if err := repo.SaveLifestyleFactors(ctx, userID, models.LifestyleFactorsInput{
			SleepQuality:     ptr(orDefault(l.SleepQuality, "fair")),
			StressLevel:      ptr(orDefault(l.StressLevel, "moderate")),
			RoutineStability: ptr(orDefault(l.RoutineStability, "somewhat_stable")),
			Relationships:    ptr(orDefault(l.Relationships, "fair")),
		}); err != nil {
			return err
		}
	}

	if s := d.SupportPreferences; s != nil {
		if err := repo.SaveSupportPreferences(ctx, userID, models.SupportPreferencesInput{
			SupportType:           s.SupportType,
			NotificationFrequency: ptr(orDefault(s.NotificationFrequency, "none")),
		}); err != nil {
			return err
		}
	}

	if c := d.EmergencyContact; c != nil && c.ContactName != "" {
		if err := repo.SaveEmergencyContact(ctx, userID, models.EmergencyContactInput{
			ContactName:  &c.ContactName,
			ContactPhone: c.ContactPhone,
			ContactEmail: c.ContactEmail,
			Relationship: c.Relationship,
		}); err != nil {
			return err
		}
	}

	if u := d.User; u != nil {
		gender := u.Gender
		if !gender.Valid() {
			gender = models.GenderPreferNotToSay
		}
		input := models.UserInput{Gender: &gender}
		if u.Age > 0 {
			input.Age = &u.Age
		}
		if err := repo.SaveUser(ctx, userID, input); err != nil {
			return err
		}
	}

	if b := d.BasicInfo; b != nil {
		if err := repo.SaveBasicInfo(ctx, userID, models.BasicInfoInput{
			DisplayName:   ptr(orDefault(b.DisplayName, "Anonymous")),
			CountryRegion: &b.CountryRegion,
			Anonymous:     &b.Anonymous,
		}); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func ptr[T any](v T) *T { return &v }
