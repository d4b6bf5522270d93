package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Tejazzz/banking-system/internal/ledger"
	"github.com/Tejazzz/banking-system/internal/models"
)

type LedgerHandler struct {
	svc *ledger.Service
}

func NewLedgerHandler(svc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

func (h *LedgerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/accounts/{id}/deposit", h.Deposit)
	mux.HandleFunc("POST /api/v1/accounts/{id}/withdraw", h.Withdraw)
	mux.HandleFunc("GET /api/v1/accounts/{id}/transactions", h.ListTransactions)
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID, req, ok := h.amountRequest(w, r)
	if !ok {
		return
	}
	txn, err := h.svc.Deposit(r.Context(), accountID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountID, req, ok := h.amountRequest(w, r)
	if !ok {
		return
	}
	txn, err := h.svc.Withdraw(r.Context(), accountID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (h *LedgerHandler) amountRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, *models.AmountRequest, bool) {
	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return uuid.Nil, nil, false
	}
	var req models.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return uuid.Nil, nil, false
	}
	return accountID, &req, true
}

// ListTransactions handles GET /api/v1/accounts/{id}/transactions?from=&to=&limit=&offset=
// from/to accept RFC 3339 timestamps or plain dates.
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	filter := models.TransactionFilter{
		AccountID: accountID,
		Limit:     20,
	}

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		filter.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		filter.To = t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	transactions, err := h.svc.History(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
