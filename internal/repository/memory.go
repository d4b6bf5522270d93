package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/models"
)

// MemoryRepository is an in-memory Repository used by tests and local runs
// without a database. It mirrors the PostgreSQL semantics: per-account
// atomicity under a single lock, uniqueness conflicts, accrual period marks
// and the optimistic version check.
type MemoryRepository struct {
	mu           sync.Mutex
	customers    map[uuid.UUID]models.Customer
	accounts     map[uuid.UUID]models.Account
	transactions map[uuid.UUID][]models.Transaction
	loans        map[uuid.UUID]models.Loan
	accrualMarks map[string]bool // accountID + "|" + period

	// FailRecordFor makes mutations on the given account fail, for
	// exercising per-account failure isolation in the accrual cycle.
	FailRecordFor map[uuid.UUID]error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		customers:     make(map[uuid.UUID]models.Customer),
		accounts:      make(map[uuid.UUID]models.Account),
		transactions:  make(map[uuid.UUID][]models.Transaction),
		loans:         make(map[uuid.UUID]models.Loan),
		accrualMarks:  make(map[string]bool),
		FailRecordFor: make(map[uuid.UUID]error),
	}
}

func (r *MemoryRepository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.customers {
		if existing.Email == c.Email {
			return &models.ConflictError{Resource: "customer", Reason: "email already registered"}
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	r.customers[c.ID] = *c
	return nil
}

func (r *MemoryRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (r *MemoryRepository) CreateAccount(ctx context.Context, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.CustomerID == a.CustomerID && existing.AccountType == a.AccountType {
			return &models.ConflictError{
				Resource: "account",
				Reason:   fmt.Sprintf("customer already holds a %s account", a.AccountType),
			}
		}
	}
	a.ID = uuid.New()
	a.Balance = decimal.Zero
	a.OpenedAt = time.Now().UTC()
	a.UpdatedAt = a.OpenedAt
	a.Version = 1
	r.accounts[a.ID] = *a
	return nil
}

func (r *MemoryRepository) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var accounts []models.Account
	for _, a := range r.accounts {
		if a.CustomerID == customerID {
			accounts = append(accounts, a)
		}
	}
	sortAccounts(accounts)
	return accounts, nil
}

func (r *MemoryRepository) ListAccrualCandidates(ctx context.Context) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var accounts []models.Account
	for _, a := range r.accounts {
		if a.Balance.GreaterThan(decimal.Zero) {
			accounts = append(accounts, a)
		}
	}
	sortAccounts(accounts)
	return accounts, nil
}

func sortAccounts(accounts []models.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].OpenedAt.Equal(accounts[j].OpenedAt) {
			return accounts[i].ID.String() < accounts[j].ID.String()
		}
		return accounts[i].OpenedAt.Before(accounts[j].OpenedAt)
	})
}

func (r *MemoryRepository) RecordEntry(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, txType models.TransactionType) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recordLocked(accountID, amount, txType)
}

func (r *MemoryRepository) recordLocked(accountID uuid.UUID, amount decimal.Decimal, txType models.TransactionType) (*models.Transaction, error) {
	if err, ok := r.FailRecordFor[accountID]; ok {
		return nil, err
	}

	a, ok := r.accounts[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}

	newBalance := a.Balance.Add(amount)
	if newBalance.IsNegative() {
		return nil, models.ErrInsufficientFunds
	}

	txn := models.Transaction{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       amount,
		BalanceAfter: newBalance,
		Type:         txType,
		CreatedAt:    time.Now().UTC(),
	}

	a.Balance = newBalance
	a.Version++
	a.UpdatedAt = txn.CreatedAt
	r.accounts[accountID] = a
	r.transactions[accountID] = append(r.transactions[accountID], txn)
	return &txn, nil
}

func (r *MemoryRepository) ApplyAccrual(ctx context.Context, accountID uuid.UUID, expectedVersion int64, period string, amount decimal.Decimal, txType models.TransactionType) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mark := accountID.String() + "|" + period
	if r.accrualMarks[mark] {
		return nil, models.ErrAlreadyAccrued
	}

	a, ok := r.accounts[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if a.Version != expectedVersion {
		return nil, &models.ConflictError{
			Resource: "account",
			Reason:   "balance changed since the cycle snapshot",
		}
	}

	txn, err := r.recordLocked(accountID, amount, txType)
	if err != nil {
		return nil, err
	}
	r.accrualMarks[mark] = true
	return txn, nil
}

func (r *MemoryRepository) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Transaction
	for _, txn := range r.transactions[filter.AccountID] {
		if !filter.From.IsZero() && txn.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && txn.CreatedAt.After(filter.To) {
			continue
		}
		out = append(out, txn)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) CreateLoan(ctx context.Context, l *models.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.loans {
		if existing.CustomerID == l.CustomerID && existing.Type == l.Type {
			return &models.ConflictError{
				Resource: "loan",
				Reason:   fmt.Sprintf("customer already holds a %s loan", l.Type),
			}
		}
	}
	l.ID = uuid.New()
	l.Status = models.LoanStatusPending
	l.InstallmentsPaid = 0
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	r.loans[l.ID] = *l
	return nil
}

func (r *MemoryRepository) GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loans[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &l, nil
}

func (r *MemoryRepository) ListLoansByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var loans []models.Loan
	for _, l := range r.loans {
		if l.CustomerID == customerID {
			loans = append(loans, l)
		}
	}
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].CreatedAt.Before(loans[j].CreatedAt)
	})
	return loans, nil
}

func (r *MemoryRepository) UpdateLoanStatus(ctx context.Context, id uuid.UUID, to models.LoanStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loans[id]
	if !ok {
		return models.ErrNotFound
	}
	if l.Status.Terminal() {
		return &models.ConflictError{Resource: "loan", Reason: "status is terminal"}
	}
	l.Status = to
	l.UpdatedAt = time.Now().UTC()
	r.loans[id] = l
	return nil
}

func (r *MemoryRepository) UpdateLoanTerms(ctx context.Context, id uuid.UUID, principal, rate decimal.Decimal, tenureMonths int, emiAmount decimal.Decimal, capped bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loans[id]
	if !ok {
		return models.ErrNotFound
	}
	if l.Status != models.LoanStatusPending {
		return &models.ConflictError{Resource: "loan", Reason: "terms are fixed once the status is terminal"}
	}
	l.Principal = principal
	l.InterestRate = rate
	l.TenureMonths = tenureMonths
	l.EMIAmount = emiAmount
	l.EMICapped = capped
	l.UpdatedAt = time.Now().UTC()
	r.loans[id] = l
	return nil
}

func (r *MemoryRepository) IncrementInstallmentsPaid(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loans[id]
	if !ok {
		return models.ErrNotFound
	}
	if l.Status != models.LoanStatusApproved || l.InstallmentsPaid >= l.TenureMonths {
		return &models.ConflictError{Resource: "loan", Reason: "not approved or already fully paid"}
	}
	l.InstallmentsPaid++
	l.UpdatedAt = time.Now().UTC()
	r.loans[id] = l
	return nil
}
