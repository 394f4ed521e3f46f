package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/saisuryavinay/financial-ledger-api/internal/adapter/http/dto"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
)

// ConsistencyService defines the behavior needed by LedgerHandler.
type ConsistencyService interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// LedgerHandler handles ledger-wide HTTP requests.
type LedgerHandler struct {
	consistencyUC ConsistencyService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(consistencyUC ConsistencyService) *LedgerHandler {
	return &LedgerHandler{consistencyUC: consistencyUC}
}

// CheckConsistency verifies the double-entry law over the whole ledger.
// An inconsistent ledger returns the report with 409 so monitoring can
// alert on the status code alone.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.consistencyUC.CheckConsistency(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) {
			writeJSON(w, http.StatusConflict, dto.ConsistencyFromReport(report))
			return
		}

		writeError(w, http.StatusInternalServerError, "consistency check failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromReport(report))
}
