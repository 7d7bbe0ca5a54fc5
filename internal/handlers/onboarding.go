package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"haven-backend/internal/middleware"
	"haven-backend/internal/models"
	"haven-backend/internal/onboarding"
	"haven-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const stepNotReachedMessage = "Please complete the previous onboarding steps first"

type OnboardingHandler struct {
	repo   *repository.OnboardingRepo
	flow   *onboarding.Flow
	guard  *onboarding.Guard
	logger *zap.Logger
}

func NewOnboardingHandler(repo *repository.OnboardingRepo, flow *onboarding.Flow, guard *onboarding.Guard, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{repo: repo, flow: flow, guard: guard, logger: logger}
}

type statusResponse struct {
	Status models.OnboardingStatus `json:"status"`
	Route  string                  `json:"route"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type guardResponse struct {
	onboarding.Decision
	DelayMS int64 `json:"delay_ms"`
}

type validationResponse struct {
	Error  string                 `json:"error"`
	Fields onboarding.FieldErrors `json:"fields"`
}

// --- GET /onboarding/status ---

func (h *OnboardingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	status, err := h.repo.GetOnboardingStatus(r.Context(), userID)
	if err != nil {
		h.logger.Error("error reading onboarding status", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status, Route: onboarding.Route(status)})
}

// --- PUT /onboarding/status ---

func (h *OnboardingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := models.OnboardingStatus(req.Status)
	if !status.Known() {
		writeError(w, http.StatusBadRequest, "unknown onboarding status")
		return
	}

	if err := h.repo.UpdateOnboardingStatus(r.Context(), userID, status); err != nil {
		h.logger.Error("error updating onboarding status", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update onboarding status")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status, Route: onboarding.Route(status)})
}

// --- GET /onboarding/guard?route= ---

func (h *OnboardingHandler) CheckGuard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	d := h.guard.Check(r.Context(), userID, r.URL.Query().Get("route"))
	writeJSON(w, http.StatusOK, guardResponse{Decision: d, DelayMS: d.Delay.Milliseconds()})
}

// --- GET /onboarding/draft ---

func (h *OnboardingHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	draft, err := onboarding.LoadDraft(r.Context(), h.repo, userID)
	if err != nil {
		h.logger.Error("error loading onboarding draft", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// --- GET /onboarding/{step} ---

func (h *OnboardingHandler) GetStep(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	step, ok := onboarding.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown onboarding step")
		return
	}

	data, err := h.flow.Load(r.Context(), userID, step)
	if err != nil {
		h.logger.Error("error loading onboarding step", zap.String("step", string(step)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "no data saved for this step")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// --- PUT /onboarding/{step} ---

func (h *OnboardingHandler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	step, ok := onboarding.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown onboarding step")
		return
	}
	form, err := onboarding.FormFor(step)
	if err != nil {
		writeError(w, http.StatusNotFound, "use /onboarding/confirm to finish onboarding")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tr, err := h.flow.Submit(r.Context(), userID, form)
	if err != nil {
		var fieldErrs onboarding.FieldErrors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Fields: fieldErrs})
			return
		}
		if errors.Is(err, onboarding.ErrStepNotReached) {
			writeError(w, http.StatusConflict, stepNotReachedMessage)
			return
		}
		h.logger.Error("error submitting onboarding step",
			zap.String("user_id", userID), zap.String("step", string(step)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save your information. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// --- POST /onboarding/{step}/back ---

func (h *OnboardingHandler) Back(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	step, ok := onboarding.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown onboarding step")
		return
	}

	tr, err := h.flow.Back(r.Context(), userID, step)
	if err != nil {
		h.logger.Error("error reading onboarding status", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// --- POST /onboarding/confirm ---

func (h *OnboardingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	tr, err := h.flow.Confirm(r.Context(), userID)
	if err != nil {
		if errors.Is(err, onboarding.ErrIncomplete) {
			writeError(w, http.StatusBadRequest, "Missing required onboarding data")
			return
		}
		if errors.Is(err, onboarding.ErrStepNotReached) {
			writeError(w, http.StatusConflict, stepNotReachedMessage)
			return
		}
		h.logger.Error("error confirming onboarding", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save your information. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, tr)
}
