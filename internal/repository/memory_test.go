package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tejazzz/banking-system/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCustomerEmailUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.CreateCustomer(ctx, &models.Customer{Email: "a@b.co", FullName: "A"}))

	err := repo.CreateCustomer(ctx, &models.Customer{Email: "a@b.co", FullName: "B"})
	var cerr *models.ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestOneAccountPerCustomerAndVariant(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	customer := &models.Customer{Email: "a@b.co", FullName: "A"}
	require.NoError(t, repo.CreateCustomer(ctx, customer))

	checking := &models.Account{CustomerID: customer.ID, AccountType: models.AccountTypeChecking, ServiceCharge: dec("10.00")}
	require.NoError(t, repo.CreateAccount(ctx, checking))

	dup := &models.Account{CustomerID: customer.ID, AccountType: models.AccountTypeChecking, ServiceCharge: dec("5.00")}
	var cerr *models.ConflictError
	require.ErrorAs(t, repo.CreateAccount(ctx, dup), &cerr)

	// The other variant is still open to the customer.
	savings := &models.Account{CustomerID: customer.ID, AccountType: models.AccountTypeSavings, InterestRate: dec("8.00")}
	require.NoError(t, repo.CreateAccount(ctx, savings))
}

func TestApplyAccrualStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	customer := &models.Customer{Email: "a@b.co", FullName: "A"}
	require.NoError(t, repo.CreateCustomer(ctx, customer))
	account := &models.Account{CustomerID: customer.ID, AccountType: models.AccountTypeSavings, InterestRate: dec("8.00")}
	require.NoError(t, repo.CreateAccount(ctx, account))

	_, err := repo.RecordEntry(ctx, account.ID, dec("500.00"), models.TransactionTypeDeposit)
	require.NoError(t, err)

	snapshot, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)

	// A deposit lands between the snapshot and the accrual commit.
	_, err = repo.RecordEntry(ctx, account.ID, dec("100.00"), models.TransactionTypeDeposit)
	require.NoError(t, err)

	_, err = repo.ApplyAccrual(ctx, account.ID, snapshot.Version, "2026-08", dec("3.33"), models.TransactionTypeInterest)
	var cerr *models.ConflictError
	require.ErrorAs(t, err, &cerr)

	// The conflicted accrual left no period mark, so a recomputed retry
	// for the same period goes through.
	fresh, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	_, err = repo.ApplyAccrual(ctx, account.ID, fresh.Version, "2026-08", dec("4.00"), models.TransactionTypeInterest)
	require.NoError(t, err)
}

func TestApplyAccrualMarkBlocksSecondRun(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	customer := &models.Customer{Email: "a@b.co", FullName: "A"}
	require.NoError(t, repo.CreateCustomer(ctx, customer))
	account := &models.Account{CustomerID: customer.ID, AccountType: models.AccountTypeSavings, InterestRate: dec("8.00")}
	require.NoError(t, repo.CreateAccount(ctx, account))
	_, err := repo.RecordEntry(ctx, account.ID, dec("500.00"), models.TransactionTypeDeposit)
	require.NoError(t, err)

	snapshot, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	_, err = repo.ApplyAccrual(ctx, account.ID, snapshot.Version, "2026-08", dec("3.33"), models.TransactionTypeInterest)
	require.NoError(t, err)

	fresh, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	_, err = repo.ApplyAccrual(ctx, account.ID, fresh.Version, "2026-08", dec("3.33"), models.TransactionTypeInterest)
	assert.ErrorIs(t, err, models.ErrAlreadyAccrued)

	// A different period is fine.
	_, err = repo.ApplyAccrual(ctx, account.ID, fresh.Version, "2026-09", dec("3.35"), models.TransactionTypeInterest)
	require.NoError(t, err)
}
