package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Tejazzz/banking-system/internal/accrual"
	"github.com/Tejazzz/banking-system/internal/models"
)

type AccrualHandler struct {
	engine *accrual.Engine
}

func NewAccrualHandler(engine *accrual.Engine) *AccrualHandler {
	return &AccrualHandler{engine: engine}
}

func (h *AccrualHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /internal/accrual/run", h.Run)
}

// Run triggers one accrual cycle for the current period (or ?period=YYYY-MM).
// A cycle with per-account failures still commits the healthy accounts and
// returns 207 with the failure list.
func (h *AccrualHandler) Run(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = accrual.Period(time.Now())
	} else if _, err := time.Parse("2006-01", period); err != nil {
		writeError(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}

	summary, err := h.engine.Run(r.Context(), period)
	if err != nil {
		var partial *models.BatchPartialFailure
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusMultiStatus, summary)
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
