package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/models"
	"github.com/Tejazzz/banking-system/internal/repository"
)

// Default variant parameters applied when the open-account request leaves
// them unset, matching the original product defaults.
var (
	defaultServiceCharge = decimal.RequireFromString("10.00")
	defaultInterestRate  = decimal.RequireFromString("8.00")
)

type AccountHandler struct {
	repo repository.Repository
}

func NewAccountHandler(repo repository.Repository) *AccountHandler {
	return &AccountHandler{repo: repo}
}

func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/customers", h.CreateCustomer)
	mux.HandleFunc("GET /api/v1/customers/{id}", h.GetCustomer)
	mux.HandleFunc("GET /api/v1/customers/{id}/accounts", h.ListAccounts)
	mux.HandleFunc("POST /api/v1/accounts", h.CreateAccount)
	mux.HandleFunc("GET /api/v1/accounts/{id}", h.GetAccount)
}

func (h *AccountHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "email and full_name are required")
		return
	}

	customer := &models.Customer{Email: req.Email, FullName: req.FullName}
	if err := h.repo.CreateCustomer(r.Context(), customer); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (h *AccountHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.repo.GetCustomer(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}

	account := &models.Account{
		CustomerID:  customerID,
		AccountType: models.AccountType(req.AccountType),
	}

	switch account.AccountType {
	case models.AccountTypeChecking:
		account.ServiceCharge = req.ServiceCharge
		if account.ServiceCharge.IsZero() {
			account.ServiceCharge = defaultServiceCharge
		}
	case models.AccountTypeSavings:
		account.InterestRate = req.InterestRate
		if account.InterestRate.IsZero() {
			account.InterestRate = defaultInterestRate
		}
	default:
		writeError(w, http.StatusBadRequest, "account_type must be checking or savings")
		return
	}

	if _, err := h.repo.GetCustomer(r.Context(), customerID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.repo.CreateAccount(r.Context(), account); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.repo.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	accounts, err := h.repo.ListAccountsByCustomer(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}
