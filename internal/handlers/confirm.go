package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"haven-backend/internal/models"
	"haven-backend/internal/repository"

	"go.uber.org/zap"
)

// ServiceKeyHeader carries the service credential for server-to-server calls.
const ServiceKeyHeader = "X-Service-Key"

// ConfirmHandler serves the basic-info confirmation endpoint called by
// trusted services with the service key rather than a user session.
type ConfirmHandler struct {
	repo       *repository.OnboardingRepo
	serviceKey string
	logger     *zap.Logger
}

func NewConfirmHandler(repo *repository.OnboardingRepo, serviceKey string, logger *zap.Logger) *ConfirmHandler {
	return &ConfirmHandler{repo: repo, serviceKey: serviceKey, logger: logger}
}

type confirmBasicInfoRequest struct {
	UserID string `json:"userId"`
	User   *struct {
		Age    json.RawMessage `json:"age"`
		Gender models.Gender   `json:"gender"`
	} `json:"user"`
	BasicInfo *struct {
		DisplayName   string `json:"display_name"`
		CountryRegion string `json:"country_region"`
		Anonymous     *bool  `json:"anonymous"`
	} `json:"basicInfo"`
}

type confirmData struct {
	UserID              string `json:"userId"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
}

type confirmResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *confirmData `json:"data,omitempty"`
}

func confirmFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, confirmResponse{Success: false, Message: msg})
}

// --- POST /functions/confirm-onboarding/basic-info ---

func (h *ConfirmHandler) ConfirmBasicInfo(w http.ResponseWriter, r *http.Request) {
	if h.serviceKey == "" {
		h.logger.Error("service key is not configured")
		confirmFailure(w, http.StatusInternalServerError, "Server configuration error")
		return
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(ServiceKeyHeader)), []byte(h.serviceKey)) != 1 {
		confirmFailure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req confirmBasicInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		confirmFailure(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if req.UserID == "" || req.User == nil || req.BasicInfo == nil {
		confirmFailure(w, http.StatusBadRequest, "Missing required fields: userId, user, or basicInfo")
		return
	}

	age, msg := parseAge(req.User.Age)
	if msg != "" {
		confirmFailure(w, http.StatusBadRequest, msg)
		return
	}
	if !req.User.Gender.Valid() {
		confirmFailure(w, http.StatusBadRequest, "Invalid gender: must be male, female, or prefer_not_to_say")
		return
	}

	displayName := strings.TrimSpace(req.BasicInfo.DisplayName)
	if len([]rune(displayName)) < 2 {
		confirmFailure(w, http.StatusBadRequest, "Invalid display_name: must be at least 2 characters")
		return
	}
	country := strings.TrimSpace(req.BasicInfo.CountryRegion)
	if country == "" {
		confirmFailure(w, http.StatusBadRequest, "Country/region is required")
		return
	}

	anonymous := false
	if req.BasicInfo.Anonymous != nil {
		anonymous = *req.BasicInfo.Anonymous
	}
	completed := true
	if err := h.repo.SaveBasicInfo(r.Context(), req.UserID, models.BasicInfoInput{
		DisplayName:         &displayName,
		CountryRegion:       &country,
		OnboardingCompleted: &completed,
		Anonymous:           &anonymous,
	}); err != nil {
		h.logger.Error("error saving basic info", zap.String("user_id", req.UserID), zap.Error(err))
		confirmFailure(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save basic information: %v", err))
		return
	}

	gender := req.User.Gender
	if err := h.repo.SaveUser(r.Context(), req.UserID, models.UserInput{Age: &age, Gender: &gender}); err != nil {
		h.logger.Error("error saving user profile", zap.String("user_id", req.UserID), zap.Error(err))
		confirmFailure(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save user profile: %v", err))
		return
	}

	h.logger.Info("onboarding basic info confirmed", zap.String("user_id", req.UserID))
	writeJSON(w, http.StatusOK, confirmResponse{
		Success: true,
		Message: "Onboarding completed successfully",
		Data:    &confirmData{UserID: req.UserID, OnboardingCompleted: true},
	})
}

// parseAge accepts any JSON number of at least MinAge. Ages are kept in
// whole years, so a fractional value is floored. A non-empty message
// explains the rejection.
func parseAge(raw json.RawMessage) (int, string) {
	var v float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil || v < models.MinAge {
		return 0, "Invalid age: must be greater than 13"
	}
	if v > math.MaxInt32 {
		return 0, "Invalid age: value is too large"
	}
	return int(math.Floor(v)), ""
}
