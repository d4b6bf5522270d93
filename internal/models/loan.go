package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanType string

const (
	LoanTypePersonal  LoanType = "personal"
	LoanTypeHome      LoanType = "home"
	LoanTypeEducation LoanType = "education"
)

type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusDeclined LoanStatus = "declined"
)

// Terminal reports whether a status admits no further transitions.
func (s LoanStatus) Terminal() bool {
	return s == LoanStatusApproved || s == LoanStatusDeclined
}

// Loan is a customer loan of one variant. A customer holds at most one loan
// per variant. EMIAmount is always recomputed from principal, rate and
// tenure before the loan is persisted.
type Loan struct {
	ID               uuid.UUID       `json:"id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	Type             LoanType        `json:"type"`
	Principal        decimal.Decimal `json:"principal"`
	EMIAmount        decimal.Decimal `json:"emi_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	TenureMonths     int             `json:"tenure_months"`
	InstallmentsPaid int             `json:"installments_paid"`
	Status           LoanStatus      `json:"status"`
	EMICapped        bool            `json:"emi_capped,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Home      *HomeDetails      `json:"home,omitempty"`
	Education *EducationDetails `json:"education,omitempty"`
}

// Address is the property address attached to a home loan, or a university
// address on an education loan.
type Address struct {
	ID      uuid.UUID `json:"id"`
	Street  string    `json:"street"`
	City    string    `json:"city"`
	State   string    `json:"state"`
	Country string    `json:"country"`
	ZipCode string    `json:"zip_code"`
}

type Insurance struct {
	ID      uuid.UUID       `json:"id"`
	Number  string          `json:"number"`
	Company string          `json:"company"`
	Premium decimal.Decimal `json:"premium"`
}

// HomeDetails are the attachments created transactionally with a home loan.
type HomeDetails struct {
	PropertyAddress Address   `json:"property_address"`
	Insurance       Insurance `json:"insurance"`
	HouseBuiltYear  int       `json:"house_built_year"`
}

type University struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code int       `json:"code"`
}

type StudentInfo struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	MiddleName  string    `json:"middle_name,omitempty"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
}

// EducationDetails are the attachments created transactionally with an
// education loan.
type EducationDetails struct {
	University     University  `json:"university"`
	Student        StudentInfo `json:"student"`
	GraduationDate time.Time   `json:"graduation_date"`
	Degree         string      `json:"degree"`
	CollegeID      string      `json:"college_id"`
}
