package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tejazzz/banking-system/internal/models"
	"github.com/Tejazzz/banking-system/internal/repository"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type capturingPublisher struct {
	subjects []string
}

func (p *capturingPublisher) Publish(subject string, data []byte) error {
	p.subjects = append(p.subjects, subject)
	return nil
}

func newAccount(t *testing.T, repo *repository.MemoryRepository) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	customer := &models.Customer{Email: "sam@example.com", FullName: "Sam Roe"}
	require.NoError(t, repo.CreateCustomer(ctx, customer))

	account := &models.Account{
		CustomerID:  customer.ID,
		AccountType: models.AccountTypeSavings,
		InterestRate: dec("8.00"),
	}
	require.NoError(t, repo.CreateAccount(ctx, account))
	return account.ID
}

func TestDepositCreatesOneEntryWithSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	pub := &capturingPublisher{}
	svc := NewService(repo, pub)
	accountID := newAccount(t, repo)

	txn, err := svc.Deposit(ctx, accountID, dec("150.25"))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeDeposit, txn.Type)
	assert.True(t, txn.Amount.Equal(dec("150.25")))
	assert.True(t, txn.BalanceAfter.Equal(dec("150.25")))
	assert.Contains(t, pub.subjects, "ledger.transactions.recorded")

	account, err := repo.GetAccount(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(dec("150.25")))

	txns, err := repo.ListTransactions(ctx, models.TransactionFilter{AccountID: accountID})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestWithdrawRecordsNegativeAmount(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo, nil)
	accountID := newAccount(t, repo)

	_, err := svc.Deposit(ctx, accountID, dec("200.00"))
	require.NoError(t, err)

	txn, err := svc.Withdraw(ctx, accountID, dec("75.50"))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeWithdrawal, txn.Type)
	assert.True(t, txn.Amount.Equal(dec("-75.50")))
	assert.True(t, txn.BalanceAfter.Equal(dec("124.50")))
}

func TestWithdrawOverBalanceRejected(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo, nil)
	accountID := newAccount(t, repo)

	_, err := svc.Deposit(ctx, accountID, dec("50.00"))
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, accountID, dec("50.01"))
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	account, err := repo.GetAccount(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(dec("50.00")), "balance changed on rejected withdrawal")

	txns, err := repo.ListTransactions(ctx, models.TransactionFilter{AccountID: accountID})
	require.NoError(t, err)
	assert.Len(t, txns, 1, "rejected withdrawal left a ledger entry")
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo, nil)
	accountID := newAccount(t, repo)

	var verr *models.ValidationError

	_, err := svc.Deposit(ctx, accountID, decimal.Zero)
	require.ErrorAs(t, err, &verr)

	_, err = svc.Withdraw(ctx, accountID, dec("-10"))
	require.ErrorAs(t, err, &verr)
}

func TestDepositToUnknownAccount(t *testing.T) {
	svc := NewService(repository.NewMemoryRepository(), nil)
	_, err := svc.Deposit(context.Background(), uuid.New(), dec("10.00"))
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestReplayReproducesBalance(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewService(repo, nil)
	accountID := newAccount(t, repo)

	amounts := []string{"100.00", "33.33", "250.10"}
	for _, a := range amounts {
		_, err := svc.Deposit(ctx, accountID, dec(a))
		require.NoError(t, err)
	}
	_, err := svc.Withdraw(ctx, accountID, dec("83.43"))
	require.NoError(t, err)

	// Mix in an accrual entry, the third mutation source.
	account, err := repo.GetAccount(ctx, accountID)
	require.NoError(t, err)
	_, err = repo.ApplyAccrual(ctx, accountID, account.Version, "2026-08", dec("2.00"), models.TransactionTypeInterest)
	require.NoError(t, err)

	txns, err := svc.History(ctx, models.TransactionFilter{AccountID: accountID})
	require.NoError(t, err)
	require.Len(t, txns, 5)

	account, err = repo.GetAccount(ctx, accountID)
	require.NoError(t, err)
	replayed := Replay(decimal.Zero, txns)
	assert.True(t, replayed.Equal(account.Balance),
		"replayed %s, balance %s", replayed, account.Balance)
	assert.True(t, txns[len(txns)-1].BalanceAfter.Equal(account.Balance))
}

func TestHistoryValidatesRange(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewService(repo, nil)
	accountID := newAccount(t, repo)

	filter := models.TransactionFilter{AccountID: accountID}
	filter.From = mustTime(t, "2026-02-01T00:00:00Z")
	filter.To = mustTime(t, "2026-01-01T00:00:00Z")

	var verr *models.ValidationError
	_, err := svc.History(context.Background(), filter)
	require.ErrorAs(t, err, &verr)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}
