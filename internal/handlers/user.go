package handlers

import (
	"net/http"

	"haven-backend/internal/middleware"
	"haven-backend/internal/models"
	"haven-backend/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type UserHandler struct {
	userRepo       *repository.UserRepo
	onboardingRepo *repository.OnboardingRepo
	moodRepo       *repository.MoodRepo
	logger         *zap.Logger
}

func NewUserHandler(userRepo *repository.UserRepo, onboardingRepo *repository.OnboardingRepo,
	moodRepo *repository.MoodRepo, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userRepo:       userRepo,
		onboardingRepo: onboardingRepo,
		moodRepo:       moodRepo,
		logger:         logger,
	}
}

type ProfileResponse struct {
	User                *models.User             `json:"user"`
	BasicInfo           *models.BasicInfo        `json:"basic_info,omitempty"`
	AddictionInfo       *models.AddictionInfo    `json:"addiction_info,omitempty"`
	MentalHealthInfo    *models.MentalHealthInfo `json:"mental_health_info,omitempty"`
	Motivation          *models.Motivation       `json:"motivation,omitempty"`
	LatestMood          *models.MoodCheckIn      `json:"latest_mood,omitempty"`
	OnboardingCompleted bool                     `json:"onboarding_completed"`
}

// --- GET /profile ---

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var p ProfileResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { p.User, err = h.userRepo.FindByID(ctx, userID); return })
	g.Go(func() (err error) { p.BasicInfo, err = h.onboardingRepo.GetBasicInfo(ctx, userID); return })
	g.Go(func() (err error) { p.AddictionInfo, err = h.onboardingRepo.GetAddictionInfo(ctx, userID); return })
	g.Go(func() (err error) { p.MentalHealthInfo, err = h.onboardingRepo.GetMentalHealthInfo(ctx, userID); return })
	g.Go(func() (err error) { p.Motivation, err = h.onboardingRepo.GetMotivation(ctx, userID); return })
	g.Go(func() (err error) { p.LatestMood, err = h.moodRepo.Latest(ctx, userID); return })

	if err := g.Wait(); err != nil {
		h.logger.Error("error loading profile", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if p.User == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	p.OnboardingCompleted = p.BasicInfo != nil && p.BasicInfo.OnboardingCompleted
	writeJSON(w, http.StatusOK, p)
}
