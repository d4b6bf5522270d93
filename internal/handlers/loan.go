package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/loans"
	"github.com/Tejazzz/banking-system/internal/models"
)

type LoanHandler struct {
	svc *loans.Service
}

func NewLoanHandler(svc *loans.Service) *LoanHandler {
	return &LoanHandler{svc: svc}
}

func (h *LoanHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/loans", h.Apply)
	mux.HandleFunc("POST /api/v1/loans/education", h.ApplyEducation)
	mux.HandleFunc("GET /api/v1/loans/{id}", h.GetLoan)
	mux.HandleFunc("GET /api/v1/loans/{id}/schedule", h.GetSchedule)
	mux.HandleFunc("PUT /api/v1/loans/{id}/terms", h.ReviseTerms)
	mux.HandleFunc("POST /api/v1/loans/{id}/approve", h.Approve)
	mux.HandleFunc("POST /api/v1/loans/{id}/decline", h.Decline)
	mux.HandleFunc("POST /api/v1/loans/{id}/installments", h.RecordInstallment)
	mux.HandleFunc("GET /api/v1/customers/{id}/loans", h.ListByCustomer)
}

type applyLoanRequest struct {
	CustomerID   string              `json:"customer_id"`
	LoanType     string              `json:"loan_type"`
	Principal    decimal.Decimal     `json:"principal"`
	InterestRate decimal.Decimal     `json:"interest_rate"`
	TenureMonths int                 `json:"tenure_months"`
	Home         *models.HomeDetails `json:"home,omitempty"`
}

// Apply handles personal and home loan applications. Education loans go
// through the multi-step payload on /loans/education.
func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}

	app := &loans.Application{
		CustomerID:   customerID,
		Type:         models.LoanType(req.LoanType),
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
		TenureMonths: req.TenureMonths,
		Home:         req.Home,
	}

	loan, err := h.svc.Apply(r.Context(), app)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

type educationLoanRequest struct {
	CustomerID     string             `json:"customer_id"`
	Principal      decimal.Decimal    `json:"principal"`
	InterestRate   decimal.Decimal    `json:"interest_rate"`
	TenureMonths   int                `json:"tenure_months"`
	Student        models.StudentInfo `json:"student"`
	University     models.University  `json:"university"`
	GraduationDate time.Time          `json:"graduation_date"`
	Degree         string             `json:"degree"`
	CollegeID      string             `json:"college_id"`
}

// ApplyEducation assembles the education-loan wizard steps and commits the
// application once, at the end.
func (h *LoanHandler) ApplyEducation(w http.ResponseWriter, r *http.Request) {
	var req educationLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}

	app, err := loans.NewEducationApplication(customerID).
		Terms(req.Principal, req.InterestRate, req.TenureMonths).
		Student(req.Student).
		University(req.University).
		Enrollment(req.GraduationDate, req.Degree, req.CollegeID).
		Finish(time.Now().UTC())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	loan, err := h.svc.Apply(r.Context(), app)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan id")
		return
	}
	loan, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan id")
		return
	}
	schedule, err := h.svc.Schedule(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

type reviseTermsRequest struct {
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TenureMonths int             `json:"tenure_months"`
}

func (h *LoanHandler) ReviseTerms(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan id")
		return
	}
	var req reviseTermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	loan, err := h.svc.ReviseTerms(r.Context(), id, req.Principal, req.InterestRate, req.TenureMonths)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Approve)
}

func (h *LoanHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Decline)
}

func (h *LoanHandler) RecordInstallment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.RecordInstallment)
}

func (h *LoanHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan id")
		return
	}
	if err := op(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	loan, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}
	list, err := h.svc.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []models.Loan{}
	}
	writeJSON(w, http.StatusOK, list)
}
