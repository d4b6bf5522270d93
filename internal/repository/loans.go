package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/models"
)

func (r *PostgresRepository) CreateLoan(ctx context.Context, l *models.Loan) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback()

	l.ID = uuid.New()
	l.Status = models.LoanStatusPending
	l.InstallmentsPaid = 0
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO loans (id, customer_id, loan_type, principal, emi_amount, interest_rate, tenure_months, installments_paid, status, emi_capped, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.CustomerID, l.Type, l.Principal.String(), l.EMIAmount.String(),
		l.InterestRate.String(), l.TenureMonths, l.InstallmentsPaid, l.Status,
		l.EMICapped, l.CreatedAt, l.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return &models.ConflictError{
			Resource: "loan",
			Reason:   fmt.Sprintf("customer already holds a %s loan", l.Type),
		}
	}
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}

	if l.Home != nil {
		if err := insertHomeDetails(ctx, dbTx, l.ID, l.Home); err != nil {
			return err
		}
	}
	if l.Education != nil {
		if err := insertEducationDetails(ctx, dbTx, l.ID, l.Education); err != nil {
			return err
		}
	}

	return dbTx.Commit()
}

func insertHomeDetails(ctx context.Context, dbTx *sql.Tx, loanID uuid.UUID, h *models.HomeDetails) error {
	h.PropertyAddress.ID = uuid.New()
	_, err := dbTx.ExecContext(ctx,
		`INSERT INTO loan_addresses (id, loan_id, street, city, state, country, zip_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.PropertyAddress.ID, loanID, h.PropertyAddress.Street, h.PropertyAddress.City,
		h.PropertyAddress.State, h.PropertyAddress.Country, h.PropertyAddress.ZipCode,
	)
	if err != nil {
		return fmt.Errorf("insert loan address: %w", err)
	}

	h.Insurance.ID = uuid.New()
	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO loan_insurance (id, loan_id, number, company, premium, house_built_year)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		h.Insurance.ID, loanID, h.Insurance.Number, h.Insurance.Company,
		h.Insurance.Premium.String(), h.HouseBuiltYear,
	)
	if err != nil {
		return fmt.Errorf("insert loan insurance: %w", err)
	}
	return nil
}

func insertEducationDetails(ctx context.Context, dbTx *sql.Tx, loanID uuid.UUID, e *models.EducationDetails) error {
	e.University.ID = uuid.New()
	_, err := dbTx.ExecContext(ctx,
		`INSERT INTO loan_universities (id, loan_id, name, code)
		 VALUES ($1, $2, $3, $4)`,
		e.University.ID, loanID, e.University.Name, e.University.Code,
	)
	if err != nil {
		return fmt.Errorf("insert loan university: %w", err)
	}

	e.Student.ID = uuid.New()
	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO loan_students (id, loan_id, first_name, middle_name, last_name, date_of_birth, email, phone, graduation_date, degree, college_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.Student.ID, loanID, e.Student.FirstName, e.Student.MiddleName, e.Student.LastName,
		e.Student.DateOfBirth, e.Student.Email, e.Student.Phone,
		e.GraduationDate, e.Degree, e.CollegeID,
	)
	if err != nil {
		return fmt.Errorf("insert loan student: %w", err)
	}
	return nil
}

const loanColumns = `id, customer_id, loan_type, principal, emi_amount, interest_rate, tenure_months, installments_paid, status, emi_capped, created_at, updated_at`

func scanLoan(row interface{ Scan(...interface{}) error }) (*models.Loan, error) {
	l := &models.Loan{}
	var principal, emi, rate string
	err := row.Scan(&l.ID, &l.CustomerID, &l.Type, &principal, &emi, &rate,
		&l.TenureMonths, &l.InstallmentsPaid, &l.Status, &l.EMICapped, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if l.Principal, err = decimal.NewFromString(principal); err != nil {
		return nil, fmt.Errorf("parse principal: %w", err)
	}
	if l.EMIAmount, err = decimal.NewFromString(emi); err != nil {
		return nil, fmt.Errorf("parse emi_amount: %w", err)
	}
	if l.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse interest_rate: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	l, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) ListLoansByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE customer_id = $1 ORDER BY created_at`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

// UpdateLoanStatus only matches pending loans, so terminal statuses can
// never regress or flip.
func (r *PostgresRepository) UpdateLoanStatus(ctx context.Context, id uuid.UUID, to models.LoanStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE loans SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now().UTC(), id, models.LoanStatusPending,
	)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetLoan(ctx, id); err != nil {
			return err
		}
		return &models.ConflictError{Resource: "loan", Reason: "status is terminal"}
	}
	return nil
}

func (r *PostgresRepository) UpdateLoanTerms(ctx context.Context, id uuid.UUID, principal, rate decimal.Decimal, tenureMonths int, emiAmount decimal.Decimal, capped bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE loans SET principal = $1, interest_rate = $2, tenure_months = $3, emi_amount = $4, emi_capped = $5, updated_at = $6
		 WHERE id = $7 AND status = $8`,
		principal.String(), rate.String(), tenureMonths, emiAmount.String(), capped,
		time.Now().UTC(), id, models.LoanStatusPending,
	)
	if err != nil {
		return fmt.Errorf("update loan terms: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetLoan(ctx, id); err != nil {
			return err
		}
		return &models.ConflictError{Resource: "loan", Reason: "terms are fixed once the status is terminal"}
	}
	return nil
}

func (r *PostgresRepository) IncrementInstallmentsPaid(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE loans SET installments_paid = installments_paid + 1, updated_at = $1
		 WHERE id = $2 AND status = $3 AND installments_paid < tenure_months`,
		time.Now().UTC(), id, models.LoanStatusApproved,
	)
	if err != nil {
		return fmt.Errorf("increment installments: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetLoan(ctx, id); err != nil {
			return err
		}
		return &models.ConflictError{Resource: "loan", Reason: "not approved or already fully paid"}
	}
	return nil
}
