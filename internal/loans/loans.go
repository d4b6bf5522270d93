// Package loans owns the loan lifecycle: application with variant
// attachments, EMI computation, the Pending -> Approved/Declined state
// machine, and installment tracking.
package loans

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/emi"
	"github.com/Tejazzz/banking-system/internal/models"
	"github.com/Tejazzz/banking-system/internal/repository"
)

// Application is a validated loan request. Home and Education carry the
// variant attachments; exactly the one matching Type must be set.
type Application struct {
	CustomerID   uuid.UUID
	Type         models.LoanType
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	TenureMonths int

	Home      *models.HomeDetails
	Education *models.EducationDetails
}

type Service struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Apply validates the application, computes the EMI, and persists the loan
// together with its attachments in one transaction. A customer holding a
// loan of the same variant gets a conflict, and nothing is written.
func (s *Service) Apply(ctx context.Context, app *Application) (*models.Loan, error) {
	if err := validateVariant(app); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCustomer(ctx, app.CustomerID); err != nil {
		return nil, err
	}

	res, err := emi.Compute(app.Principal, app.InterestRate, app.TenureMonths)
	if err != nil {
		return nil, err
	}
	if res.Capped {
		log.Printf("WARN: EMI capped at %s for customer %s %s loan application",
			emi.MaxEMI, app.CustomerID, app.Type)
	}

	loan := &models.Loan{
		CustomerID:   app.CustomerID,
		Type:         app.Type,
		Principal:    app.Principal,
		EMIAmount:    res.EMI,
		InterestRate: app.InterestRate,
		TenureMonths: app.TenureMonths,
		EMICapped:    res.Capped,
		Home:         app.Home,
		Education:    app.Education,
	}
	if err := s.repo.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func validateVariant(app *Application) error {
	switch app.Type {
	case models.LoanTypePersonal:
		if app.Home != nil || app.Education != nil {
			return &models.ValidationError{Field: "attachments", Reason: "personal loans carry no attachments"}
		}
	case models.LoanTypeHome:
		if app.Home == nil {
			return &models.ValidationError{Field: "home", Reason: "property address and insurance required"}
		}
		if app.Home.HouseBuiltYear < 1800 || app.Home.HouseBuiltYear > time.Now().Year() {
			return &models.ValidationError{Field: "house_built_year", Reason: "implausible construction year"}
		}
	case models.LoanTypeEducation:
		if app.Education == nil {
			return &models.ValidationError{Field: "education", Reason: "university and student record required"}
		}
	default:
		return &models.ValidationError{Field: "loan_type", Reason: "must be personal, home or education"}
	}
	return nil
}

// Approve moves a pending loan to approved. Terminal statuses never move
// again.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateLoanStatus(ctx, id, models.LoanStatusApproved)
}

// Decline moves a pending loan to declined.
func (s *Service) Decline(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateLoanStatus(ctx, id, models.LoanStatusDeclined)
}

// ReviseTerms changes a pending loan's principal, rate or tenure. The EMI
// is recomputed from the new terms before anything is persisted.
func (s *Service) ReviseTerms(ctx context.Context, id uuid.UUID, principal, annualRate decimal.Decimal, tenureMonths int) (*models.Loan, error) {
	res, err := emi.Compute(principal, annualRate, tenureMonths)
	if err != nil {
		return nil, err
	}
	if res.Capped {
		log.Printf("WARN: EMI capped at %s while revising loan %s", emi.MaxEMI, id)
	}
	if err := s.repo.UpdateLoanTerms(ctx, id, principal, annualRate, tenureMonths, res.EMI, res.Capped); err != nil {
		return nil, err
	}
	return s.repo.GetLoan(ctx, id)
}

// RecordInstallment marks one EMI payment on an approved loan. It never
// advances past the tenure.
func (s *Service) RecordInstallment(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementInstallmentsPaid(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	return s.repo.GetLoan(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Loan, error) {
	return s.repo.ListLoansByCustomer(ctx, customerID)
}

// Schedule returns the full amortization table for a loan.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID) ([]emi.ScheduleEntry, error) {
	loan, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	return emi.Schedule(loan.Principal, loan.InterestRate, loan.TenureMonths)
}
