package loans

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/models"
)

// ApplicationBuilder accumulates an education-loan application across the
// steps of the multi-page form. Nothing touches the database until Finish;
// abandoning the builder discards all state.
type ApplicationBuilder struct {
	customerID uuid.UUID

	terms      bool
	principal  decimal.Decimal
	rate       decimal.Decimal
	tenure     int

	student    *models.StudentInfo
	university *models.University

	graduation time.Time
	degree     string
	collegeID  string
	enrollment bool
}

func NewEducationApplication(customerID uuid.UUID) *ApplicationBuilder {
	return &ApplicationBuilder{customerID: customerID}
}

// Terms records step one: principal, annual rate and tenure in months.
func (b *ApplicationBuilder) Terms(principal, annualRate decimal.Decimal, tenureMonths int) *ApplicationBuilder {
	b.principal = principal
	b.rate = annualRate
	b.tenure = tenureMonths
	b.terms = true
	return b
}

// Student records step two.
func (b *ApplicationBuilder) Student(info models.StudentInfo) *ApplicationBuilder {
	b.student = &info
	return b
}

// University records step three.
func (b *ApplicationBuilder) University(u models.University) *ApplicationBuilder {
	b.university = &u
	return b
}

// Enrollment records the final step: graduation date, degree and college ID.
func (b *ApplicationBuilder) Enrollment(graduation time.Time, degree, collegeID string) *ApplicationBuilder {
	b.graduation = graduation
	b.degree = degree
	b.collegeID = collegeID
	b.enrollment = true
	return b
}

// Finish validates that every step completed and assembles the application.
// The graduation date must lie at least a year out, matching the original
// eligibility rule.
func (b *ApplicationBuilder) Finish(now time.Time) (*Application, error) {
	switch {
	case !b.terms:
		return nil, &models.ValidationError{Field: "terms", Reason: "loan terms step not completed"}
	case b.student == nil:
		return nil, &models.ValidationError{Field: "student", Reason: "student step not completed"}
	case b.university == nil:
		return nil, &models.ValidationError{Field: "university", Reason: "university step not completed"}
	case !b.enrollment:
		return nil, &models.ValidationError{Field: "enrollment", Reason: "enrollment step not completed"}
	}
	if b.graduation.Before(now.AddDate(1, 0, 0)) {
		return nil, &models.ValidationError{Field: "graduation_date", Reason: "must be at least one year out"}
	}

	return &Application{
		CustomerID:   b.customerID,
		Type:         models.LoanTypeEducation,
		Principal:    b.principal,
		InterestRate: b.rate,
		TenureMonths: b.tenure,
		Education: &models.EducationDetails{
			University:     *b.university,
			Student:        *b.student,
			GraduationDate: b.graduation,
			Degree:         b.degree,
			CollegeID:      b.collegeID,
		},
	}, nil
}
