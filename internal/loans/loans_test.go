package loans

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tejazzz/banking-system/internal/emi"
	"github.com/Tejazzz/banking-system/internal/models"
	"github.com/Tejazzz/banking-system/internal/repository"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCustomer(t *testing.T, repo *repository.MemoryRepository) uuid.UUID {
	t.Helper()
	customer := &models.Customer{Email: "lee@example.com", FullName: "Lee Woo"}
	require.NoError(t, repo.CreateCustomer(context.Background(), customer))
	return customer.ID
}

func homeDetails() *models.HomeDetails {
	return &models.HomeDetails{
		PropertyAddress: models.Address{
			Street: "12 Elm St", City: "Columbus", State: "OH",
			Country: "United States", ZipCode: "43210",
		},
		Insurance:      models.Insurance{Number: "INS-4411", Company: "Acme Mutual", Premium: dec("120.00")},
		HouseBuiltYear: 1987,
	}
}

func TestApplyPersonalLoanComputesEMI(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	loan, err := svc.Apply(ctx, &Application{
		CustomerID:   customerID,
		Type:         models.LoanTypePersonal,
		Principal:    dec("100000"),
		InterestRate: dec("12"),
		TenureMonths: 12,
	})
	require.NoError(t, err)

	assert.Equal(t, models.LoanStatusPending, loan.Status)
	assert.Equal(t, 0, loan.InstallmentsPaid)
	assert.False(t, loan.EMICapped)

	want, err := emi.Compute(dec("100000"), dec("12"), 12)
	require.NoError(t, err)
	assert.True(t, loan.EMIAmount.Equal(want.EMI), "EMI = %s, want %s", loan.EMIAmount, want.EMI)
}

func TestApplyDuplicateVariantConflicts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	app := &Application{
		CustomerID: customerID, Type: models.LoanTypePersonal,
		Principal: dec("5000"), InterestRate: dec("10"), TenureMonths: 24,
	}
	_, err := svc.Apply(ctx, app)
	require.NoError(t, err)

	_, err = svc.Apply(ctx, app)
	var cerr *models.ConflictError
	require.ErrorAs(t, err, &cerr)

	// A different variant for the same customer is fine.
	_, err = svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypeHome,
		Principal: dec("250000"), InterestRate: dec("8.5"), TenureMonths: 60,
		Home: homeDetails(),
	})
	require.NoError(t, err)

	list, err := svc.ListByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestApplyValidatesVariantAttachments(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	var verr *models.ValidationError

	_, err := svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypeHome,
		Principal: dec("250000"), InterestRate: dec("8.5"), TenureMonths: 60,
	})
	require.ErrorAs(t, err, &verr, "home loan without attachments")

	_, err = svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypeEducation,
		Principal: dec("40000"), InterestRate: dec("6"), TenureMonths: 120,
	})
	require.ErrorAs(t, err, &verr, "education loan without attachments")

	_, err = svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypePersonal,
		Principal: dec("5000"), InterestRate: dec("10"), TenureMonths: 24,
		Home: homeDetails(),
	})
	require.ErrorAs(t, err, &verr, "personal loan with attachments")

	list, err := svc.ListByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected applications persisted records")
}

func TestApplyRejectsImplausibleBuiltYear(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	details := homeDetails()
	details.HouseBuiltYear = time.Now().Year() + 2

	var verr *models.ValidationError
	_, err := svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypeHome,
		Principal: dec("250000"), InterestRate: dec("8.5"), TenureMonths: 60,
		Home: details,
	})
	require.ErrorAs(t, err, &verr)
}

func TestApplyRejectsInvalidTerms(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	var verr *models.ValidationError
	_, err := svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypePersonal,
		Principal: dec("-1"), InterestRate: dec("10"), TenureMonths: 12,
	})
	require.ErrorAs(t, err, &verr)
}

func TestApplyUnknownCustomer(t *testing.T) {
	svc := NewService(repository.NewMemoryRepository())
	_, err := svc.Apply(context.Background(), &Application{
		CustomerID: uuid.New(), Type: models.LoanTypePersonal,
		Principal: dec("5000"), InterestRate: dec("10"), TenureMonths: 24,
	})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStatusTransitionsAreOneWay(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	loan, err := svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypePersonal,
		Principal: dec("5000"), InterestRate: dec("10"), TenureMonths: 24,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, loan.ID))

	got, err := svc.Get(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusApproved, got.Status)

	var cerr *models.ConflictError
	require.ErrorAs(t, svc.Decline(ctx, loan.ID), &cerr)
	require.ErrorAs(t, svc.Approve(ctx, loan.ID), &cerr)

	got, err = svc.Get(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusApproved, got.Status, "terminal status regressed")
}

func TestRecordInstallmentStopsAtTenure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	loan, err := svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypePersonal,
		Principal: dec("1000"), InterestRate: dec("10"), TenureMonths: 3,
	})
	require.NoError(t, err)

	var cerr *models.ConflictError
	require.ErrorAs(t, svc.RecordInstallment(ctx, loan.ID), &cerr, "installment on pending loan")

	require.NoError(t, svc.Approve(ctx, loan.ID))
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecordInstallment(ctx, loan.ID))
	}
	require.ErrorAs(t, svc.RecordInstallment(ctx, loan.ID), &cerr, "installment past tenure")

	got, err := svc.Get(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.InstallmentsPaid)
}

func TestEducationBuilder(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	customerID := uuid.New()

	student := models.StudentInfo{
		FirstName: "Ada", LastName: "Okafor",
		DateOfBirth: time.Date(2004, 5, 1, 0, 0, 0, 0, time.UTC),
		Email:       "ada@example.edu", Phone: "+16145550100",
	}
	university := models.University{Name: "Ohio State", Code: 1870}

	app, err := NewEducationApplication(customerID).
		Terms(dec("40000"), dec("6"), 120).
		Student(student).
		University(university).
		Enrollment(now.AddDate(2, 0, 0), "BSc", "OSU-77").
		Finish(now)
	require.NoError(t, err)
	assert.Equal(t, models.LoanTypeEducation, app.Type)
	require.NotNil(t, app.Education)
	assert.Equal(t, "Ohio State", app.Education.University.Name)
}

func TestEducationBuilderIncomplete(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	var verr *models.ValidationError
	_, err := NewEducationApplication(uuid.New()).
		Terms(dec("40000"), dec("6"), 120).
		Finish(now)
	require.ErrorAs(t, err, &verr)
}

func TestEducationBuilderGraduationTooSoon(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	var verr *models.ValidationError
	_, err := NewEducationApplication(uuid.New()).
		Terms(dec("40000"), dec("6"), 120).
		Student(models.StudentInfo{FirstName: "Ada", LastName: "Okafor"}).
		University(models.University{Name: "Ohio State", Code: 1870}).
		Enrollment(now.AddDate(0, 6, 0), "BSc", "OSU-77").
		Finish(now)
	require.ErrorAs(t, err, &verr)
}

func TestReviseTermsRecomputesEMI(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	loan, err := svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypePersonal,
		Principal: dec("100000"), InterestRate: dec("12"), TenureMonths: 12,
	})
	require.NoError(t, err)

	revised, err := svc.ReviseTerms(ctx, loan.ID, dec("50000"), dec("9"), 24)
	require.NoError(t, err)

	want, err := emi.Compute(dec("50000"), dec("9"), 24)
	require.NoError(t, err)
	assert.True(t, revised.EMIAmount.Equal(want.EMI), "EMI = %s, want %s", revised.EMIAmount, want.EMI)
	assert.Equal(t, 24, revised.TenureMonths)

	// Terms freeze once the loan reaches a terminal status.
	require.NoError(t, svc.Approve(ctx, loan.ID))
	var cerr *models.ConflictError
	_, err = svc.ReviseTerms(ctx, loan.ID, dec("60000"), dec("9"), 24)
	require.ErrorAs(t, err, &cerr)
}

func TestScheduleMatchesLoanTerms(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo)
	customerID := newCustomer(t, repo)

	loan, err := svc.Apply(ctx, &Application{
		CustomerID: customerID, Type: models.LoanTypePersonal,
		Principal: dec("100000"), InterestRate: dec("12"), TenureMonths: 12,
	})
	require.NoError(t, err)

	schedule, err := svc.Schedule(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, schedule, 12)
	assert.True(t, schedule[0].Payment.Equal(loan.EMIAmount))
	assert.True(t, schedule[11].RemainingBalance.IsZero())
}
