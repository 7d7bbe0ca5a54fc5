package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"haven-backend/internal/database"
	"haven-backend/internal/middleware"
	"haven-backend/internal/models"
	"haven-backend/internal/notify"
	"haven-backend/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxNoteLength    = 2000
)

type MoodHandler struct {
	moodRepo *repository.MoodRepo
	alerts   *notify.Background
	logger   *zap.Logger
}

func NewMoodHandler(moodRepo *repository.MoodRepo, alerts *notify.Background, logger *zap.Logger) *MoodHandler {
	return &MoodHandler{
		moodRepo: moodRepo,
		alerts:   alerts,
		logger:   logger,
	}
}

type SubmitMoodRequest struct {
	Feeling        string `json:"feeling"`
	Note           string `json:"note"`
	IdempotencyKey string `json:"idempotency_key"`
}

// --- POST /mood-checkins ---

func (h *MoodHandler) SubmitCheckIn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req SubmitMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !models.OneOf(req.Feeling, models.FeelingOptions) {
		writeError(w, http.StatusBadRequest, "Please select how you've been feeling")
		return
	}
	note := strings.TrimSpace(req.Note)
	if len(note) > maxNoteLength {
		writeError(w, http.StatusBadRequest, "note is too long")
		return
	}
	if req.IdempotencyKey == "" {
		writeError(w, http.StatusBadRequest, "idempotency_key is required")
		return
	}

	// Idempotency check, prevents duplicate submissions on client retry
	existing, err := h.moodRepo.FindByIdempotencyKey(r.Context(), req.IdempotencyKey)
	if err != nil {
		h.logger.Error("error checking idempotency", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing != nil {
		if existing.UserID != userID {
			writeError(w, http.StatusConflict, "idempotency_key already used")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "check-in already submitted",
			"check_in": existing,
		})
		return
	}

	checkIn := &models.MoodCheckIn{
		UserID:         userID,
		Feeling:        req.Feeling,
		Note:           note,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := h.moodRepo.Create(r.Context(), checkIn); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			writeError(w, http.StatusConflict, "check-in already submitted")
			return
		}
		h.logger.Error("error creating mood check-in", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save check-in")
		return
	}

	if checkIn.Feeling == models.FeelingCrisis {
		h.alerts.Publish(notify.CrisisMessage(userID, "mood check-in", note))
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "check-in saved",
		"check_in": checkIn,
	})
}

// --- GET /mood-checkins ---

func (h *MoodHandler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	list, err := h.moodRepo.ListByUser(r.Context(), userID, limitFromQuery(r, defaultListLimit, maxListLimit))
	if err != nil {
		h.logger.Error("error listing mood check-ins", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"check_ins": list})
}
