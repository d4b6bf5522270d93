package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/models"
)

// Repository is the data-access surface for the ledger service.
type Repository interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)

	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Account, error)
	// ListAccrualCandidates returns every account with a positive balance.
	ListAccrualCandidates(ctx context.Context) ([]models.Account, error)

	// RecordEntry applies a signed amount to an account and appends the
	// ledger entry in one atomic commit. A debit that would take the
	// balance below zero fails with ErrInsufficientFunds and persists
	// nothing.
	RecordEntry(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, txType models.TransactionType) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	// ApplyAccrual is RecordEntry plus a per-period de-duplication mark
	// and an optimistic version check against the snapshot the cycle was
	// computed from.
	ApplyAccrual(ctx context.Context, accountID uuid.UUID, expectedVersion int64, period string, amount decimal.Decimal, txType models.TransactionType) (*models.Transaction, error)

	// CreateLoan persists a loan and its variant attachments in a single
	// transaction: either all rows exist afterwards, or none do.
	CreateLoan(ctx context.Context, l *models.Loan) error
	GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	ListLoansByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Loan, error)
	// UpdateLoanStatus moves a pending loan to a terminal status. Loans
	// already in a terminal status are never moved again.
	UpdateLoanStatus(ctx context.Context, id uuid.UUID, to models.LoanStatus) error
	// UpdateLoanTerms replaces principal, rate and tenure together with
	// the EMI recomputed from them. Pending loans only.
	UpdateLoanTerms(ctx context.Context, id uuid.UUID, principal, rate decimal.Decimal, tenureMonths int, emiAmount decimal.Decimal, capped bool) error
	IncrementInstallmentsPaid(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository implements Repository with PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *PostgresRepository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, email, full_name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		c.ID, c.Email, c.FullName, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return &models.ConflictError{Resource: "customer", Reason: "email already registered"}
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c := &models.Customer{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, created_at FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.FullName, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, a *models.Account) error {
	a.ID = uuid.New()
	a.Balance = decimal.Zero
	a.OpenedAt = time.Now().UTC()
	a.UpdatedAt = a.OpenedAt
	a.Version = 1

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, customer_id, account_type, balance, service_charge, interest_rate, opened_at, version, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.CustomerID, a.AccountType, a.Balance.String(),
		a.ServiceCharge.String(), a.InterestRate.String(), a.OpenedAt, a.Version, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return &models.ConflictError{
			Resource: "account",
			Reason:   fmt.Sprintf("customer already holds a %s account", a.AccountType),
		}
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const accountColumns = `id, customer_id, account_type, balance, service_charge, interest_rate, opened_at, version, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	a := &models.Account{}
	var balance, charge, rate string
	err := row.Scan(&a.ID, &a.CustomerID, &a.AccountType, &balance,
		&charge, &rate, &a.OpenedAt, &a.Version, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	if a.ServiceCharge, err = decimal.NewFromString(charge); err != nil {
		return nil, fmt.Errorf("parse service_charge: %w", err)
	}
	if a.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse interest_rate: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE customer_id = $1 ORDER BY opened_at`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *PostgresRepository) ListAccrualCandidates(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE balance > 0 ORDER BY opened_at`)
	if err != nil {
		return nil, fmt.Errorf("list accrual candidates: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]models.Account, error) {
	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}
