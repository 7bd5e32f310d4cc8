package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/premarket-signals/internal/brain"
	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/report"
	"github.com/wonny/premarket-signals/internal/service"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/logger"
)

// Scanner is the part of service.ScanService the API needs
type Scanner interface {
	Scan(ctx context.Context) (*contracts.Result, error)
	Latest(ctx context.Context) (*contracts.Result, error)
	GetRun(ctx context.Context, runID string) (*contracts.Result, error)
	RiskConfig() (strategyconfig.RiskConfig, string)
}

// SignalsHandler handles signal run endpoints
// ⭐ SSOT: signal API handlers live in this struct only
type SignalsHandler struct {
	scanner Scanner
	logger  *logger.Logger
}

// NewSignalsHandler creates a new signals handler
func NewSignalsHandler(scanner Scanner, log *logger.Logger) *SignalsHandler {
	return &SignalsHandler{
		scanner: scanner,
		logger:  log,
	}
}

// GetLatest returns the most recent run
// GET /api/signals/latest[?format=text]
func (h *SignalsHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanner.Latest(r.Context())
	if err != nil {
		h.respondLookupError(w, err, "")
		return
	}

	respondResult(w, r, http.StatusOK, result)
}

// GetRun returns one run by id
// GET /api/signals/runs/{run_id}[?format=text]
func (h *SignalsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]

	result, err := h.scanner.GetRun(r.Context(), runID)
	if err != nil {
		h.respondLookupError(w, err, runID)
		return
	}

	respondResult(w, r, http.StatusOK, result)
}

// Run triggers a scan and returns its result
// POST /api/signals/run
func (h *SignalsHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanner.Scan(r.Context())
	switch {
	case errors.Is(err, service.ErrScanInProgress):
		respondError(w, http.StatusConflict, "A scan is already running")
		return
	case brain.IsCancelled(err):
		respondError(w, http.StatusServiceUnavailable, "Scan cancelled")
		return
	case err != nil:
		h.logger.WithError(err).Error("Scan failed")
		respondError(w, http.StatusInternalServerError, "Scan failed")
		return
	}

	respondResult(w, r, http.StatusOK, result)
}

// ConfigResponse describes the active risk configuration
type ConfigResponse struct {
	Risk     strategyconfig.RiskConfig `json:"risk"`
	Hash     string                    `json:"hash"`
	Warnings []strategyconfig.Warning  `json:"warnings"`
}

// GetConfig returns the active risk configuration
// GET /api/config
func (h *SignalsHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, hash := h.scanner.RiskConfig()

	warnings := strategyconfig.Warn(cfg)
	if warnings == nil {
		warnings = []strategyconfig.Warning{}
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Risk:     cfg,
		Hash:     hash,
		Warnings: warnings,
	})
}

func (h *SignalsHandler) respondLookupError(w http.ResponseWriter, err error, runID string) {
	if errors.Is(err, service.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"error":  err.Error(),
	}).Error("Failed to load run")
	respondError(w, http.StatusInternalServerError, "Failed to load run")
}

// respondResult writes a run as JSON, or as the text report with ?format=text
func respondResult(w http.ResponseWriter, r *http.Request, status int, result *contracts.Result) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(report.FormatText(result) + "\n"))
		return
	}

	respondJSON(w, status, result)
}
