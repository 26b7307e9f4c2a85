package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dproquant/tradecheck/internal/store"
	"github.com/dproquant/tradecheck/pkg/logger"
)

// ReportsHandler serves stored audit reports.
type ReportsHandler struct {
	repo   *store.Repository
	logger *logger.Logger
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(repo *store.Repository, log *logger.Logger) *ReportsHandler {
	return &ReportsHandler{repo: repo, logger: log}
}

// List returns stored report summaries, newest first.
// GET /api/reports?limit=N
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	summaries, err := h.repo.ListReports(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reports")
		respondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reports": summaries})
}

// Get returns one stored report by id.
// GET /api/reports/{id}
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	payload, err := h.repo.GetReport(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
