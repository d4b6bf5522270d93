package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeInterest   TransactionType = "interest"
	TransactionTypeCharge     TransactionType = "charge"
)

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is a single bank account. ServiceCharge applies to checking
// accounts, InterestRate (annual, percent) to savings accounts; the unused
// field stays zero. Version increments on every balance mutation and backs
// the optimistic conflict check in the accrual path.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	AccountType   AccountType     `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	ServiceCharge decimal.Decimal `json:"service_charge,omitempty"`
	InterestRate  decimal.Decimal `json:"interest_rate,omitempty"`
	OpenedAt      time.Time       `json:"opened_at"`
	Version       int64           `json:"-"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Transaction is an immutable ledger entry. Amount is signed (debits are
// negative) and BalanceAfter is the account balance captured in the same
// commit that applied the mutation, never recomputed later.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after_transaction"`
	Type         TransactionType `json:"type"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TransactionFilter holds query parameters for listing ledger entries.
type TransactionFilter struct {
	AccountID uuid.UUID
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// Request types

type CreateCustomerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type CreateAccountRequest struct {
	CustomerID    string          `json:"customer_id"`
	AccountType   string          `json:"account_type"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransactionEvent is published to NATS after a ledger entry commits.
type TransactionEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after_transaction"`
	Type          TransactionType `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
}
