package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dproquant/tradecheck/internal/engine"
	"github.com/dproquant/tradecheck/internal/loader"
	"github.com/dproquant/tradecheck/internal/store"
	"github.com/dproquant/tradecheck/pkg/logger"
)

const maxUploadBytes = 16 << 20 // 16 MiB

// AuditHandler runs audits over uploaded transaction files.
type AuditHandler struct {
	rulebook *engine.Rulebook
	loader   *loader.Loader
	repo     *store.Repository // nil when running without a database
	logger   *logger.Logger
}

// NewAuditHandler creates an audit handler. repo may be nil.
func NewAuditHandler(rb *engine.Rulebook, ld *loader.Loader, repo *store.Repository, log *logger.Logger) *AuditHandler {
	return &AuditHandler{rulebook: rb, loader: ld, repo: repo, logger: log}
}

// RunAudit accepts a multipart form with the account parameters and a CSV
// transaction file, runs the audit, and returns the report JSON.
// POST /api/audit
func (h *AuditHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	startCapital, err := decimal.NewFromString(r.FormValue("monthly_start_capital"))
	if err != nil || !startCapital.IsPositive() {
		respondError(w, http.StatusBadRequest, "monthly_start_capital must be a positive number")
		return
	}

	contracts, err := strconv.Atoi(r.FormValue("operation_contracts"))
	if err != nil || contracts <= 0 {
		respondError(w, http.StatusBadRequest, "operation_contracts must be a positive integer")
		return
	}

	account := engine.Account{
		MonthlyStartCapital: startCapital,
		Scale:               r.FormValue("current_scale"),
		OperationContracts:  contracts,
	}

	auditor, err := engine.NewAuditor(h.rulebook, account, h.logger)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing transaction file")
		return
	}
	defer file.Close()

	trades, err := h.loader.Load(file)
	if err != nil {
		h.logger.WithError(err).WithField("filename", header.Filename).Warn("Rejected transaction file")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := auditor.Run(trades)
	if err != nil {
		h.logger.WithError(err).Error("Audit failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.repo != nil {
		if id, err := h.repo.SaveReport(r.Context(), report); err != nil {
			h.logger.WithError(err).Warn("Failed to persist report")
		} else {
			w.Header().Set("X-Report-ID", id)
		}
	}

	respondJSON(w, http.StatusOK, report)
}
