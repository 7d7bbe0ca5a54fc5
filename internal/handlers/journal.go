package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"haven-backend/internal/middleware"
	"haven-backend/internal/models"
	"haven-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type JournalHandler struct {
	journalRepo *repository.JournalRepo
	logger      *zap.Logger
}

func NewJournalHandler(journalRepo *repository.JournalRepo, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{journalRepo: journalRepo, logger: logger}
}

type journalRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Prompt string `json:"prompt"`
}

// --- POST /journal-entries ---

func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title, body := strings.TrimSpace(req.Title), strings.TrimSpace(req.Body)
	if title == "" && body == "" {
		writeError(w, http.StatusBadRequest, "Please enter at least a title or content")
		return
	}

	entry := &models.JournalEntry{
		UserID: userID,
		Title:  title,
		Body:   body,
		Prompt: strings.TrimSpace(req.Prompt),
	}
	if err := h.journalRepo.Create(r.Context(), entry); err != nil {
		h.logger.Error("error creating journal entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// --- PUT /journal-entries/{id} ---

func (h *JournalHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	existing, err := h.journalRepo.FindByID(r.Context(), id)
	if err != nil {
		h.logger.Error("error finding journal entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title, body := strings.TrimSpace(req.Title), strings.TrimSpace(req.Body)
	if title == "" && body == "" {
		writeError(w, http.StatusBadRequest, "Please enter at least a title or content")
		return
	}

	if err := h.journalRepo.Update(r.Context(), id, title, body); err != nil {
		h.logger.Error("error updating journal entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save entry")
		return
	}
	updated, err := h.journalRepo.FindByID(r.Context(), id)
	if err != nil || updated == nil {
		h.logger.Error("error reloading journal entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- GET /journal-entries ---

func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	entries, err := h.journalRepo.ListByUser(r.Context(), userID, limitFromQuery(r, defaultListLimit, maxListLimit))
	if err != nil {
		h.logger.Error("error listing journal entries", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
