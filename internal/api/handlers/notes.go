package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/dproquant/tradecheck/internal/store"
	"github.com/dproquant/tradecheck/pkg/logger"
)

// NotesHandler serves trade note CRUD.
type NotesHandler struct {
	repo   *store.Repository
	logger *logger.Logger
}

// NewNotesHandler creates a notes handler.
func NewNotesHandler(repo *store.Repository, log *logger.Logger) *NotesHandler {
	return &NotesHandler{repo: repo, logger: log}
}

type notePayload struct {
	TradeTime time.Time `json:"trade_time"`
	Note      string    `json:"note"`
}

// List returns notes in a time range.
// GET /api/notes?from=RFC3339&to=RFC3339
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	from := time.Time{}
	to := time.Now().AddDate(100, 0, 0)

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid 'from' time")
			return
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid 'to' time")
			return
		}
		to = t
	}

	notes, err := h.repo.ListNotes(r.Context(), from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list notes")
		respondError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

// Create adds a note.
// POST /api/notes
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload notePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid note payload")
		return
	}
	if payload.Note == "" || payload.TradeTime.IsZero() {
		respondError(w, http.StatusBadRequest, "trade_time and note are required")
		return
	}

	id, err := h.repo.SaveNote(r.Context(), payload.TradeTime, payload.Note)
	if err != nil {
		h.logger.WithError(err).Error("Failed to save note")
		respondError(w, http.StatusInternalServerError, "failed to save note")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

// Update rewrites a note.
// PUT /api/notes/{id}
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	var payload notePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Note == "" {
		respondError(w, http.StatusBadRequest, "invalid note payload")
		return
	}

	if err := h.repo.UpdateNote(r.Context(), id, payload.Note); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete removes a note.
// DELETE /api/notes/{id}
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	if err := h.repo.DeleteNote(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
