// Package ledger exposes the interactive account operations: deposits,
// withdrawals and transaction history. Every mutation goes through the
// repository's atomic record path and yields exactly one immutable ledger
// entry carrying the post-transaction balance.
package ledger

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/models"
	"github.com/Tejazzz/banking-system/internal/repository"
)

// Publisher is the event sink for committed ledger entries. *nats.Conn
// satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

const subjectTransactionRecorded = "ledger.transactions.recorded"

type Service struct {
	repo repository.Repository
	pub  Publisher
}

// NewService builds a ledger service. pub may be nil, in which case no
// events are emitted.
func NewService(repo repository.Repository, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub}
}

func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &models.ValidationError{Field: "amount", Reason: "deposit must be positive"}
	}
	txn, err := s.repo.RecordEntry(ctx, accountID, amount, models.TransactionTypeDeposit)
	if err != nil {
		return nil, err
	}
	s.publish(txn)
	return txn, nil
}

func (s *Service) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &models.ValidationError{Field: "amount", Reason: "withdrawal must be positive"}
	}
	txn, err := s.repo.RecordEntry(ctx, accountID, amount.Neg(), models.TransactionTypeWithdrawal)
	if err != nil {
		return nil, err
	}
	s.publish(txn)
	return txn, nil
}

func (s *Service) History(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	if filter.AccountID == uuid.Nil {
		return nil, &models.ValidationError{Field: "account_id", Reason: "required"}
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, &models.ValidationError{Field: "date_range", Reason: "end must not precede start"}
	}
	return s.repo.ListTransactions(ctx, filter)
}

// Replay folds an account's ledger entries over a starting balance. With
// amounts stored at the same fixed-point precision as the balance, replaying
// the full history from the initial balance reproduces the current balance
// exactly.
func Replay(initial decimal.Decimal, transactions []models.Transaction) decimal.Decimal {
	balance := initial
	for _, txn := range transactions {
		balance = balance.Add(txn.Amount)
	}
	return balance
}

func (s *Service) publish(txn *models.Transaction) {
	if s.pub == nil {
		return
	}
	event := models.TransactionEvent{
		TransactionID: txn.ID,
		AccountID:     txn.AccountID,
		Amount:        txn.Amount,
		BalanceAfter:  txn.BalanceAfter,
		Type:          txn.Type,
		Timestamp:     txn.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.pub.Publish(subjectTransactionRecorded, data); err != nil {
		log.Printf("WARN: publish transaction event: %v", err)
	}
}
