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

// RecordEntry row-locks the account, computes the post-transaction balance,
// appends the ledger entry with that snapshot, and updates the balance, all
// inside one database transaction. The row lock serializes interactive
// writers and the accrual cycle on the same account.
func (r *PostgresRepository) RecordEntry(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, txType models.TransactionType) (*models.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback()

	txn, err := recordEntryTx(ctx, dbTx, accountID, amount, txType)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit entry: %w", err)
	}
	return txn, nil
}

func recordEntryTx(ctx context.Context, dbTx *sql.Tx, accountID uuid.UUID, amount decimal.Decimal, txType models.TransactionType) (*models.Transaction, error) {
	var balanceStr string
	err := dbTx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID,
	).Scan(&balanceStr)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}

	newBalance := balance.Add(amount)
	if newBalance.IsNegative() {
		return nil, models.ErrInsufficientFunds
	}

	txn := &models.Transaction{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       amount,
		BalanceAfter: newBalance,
		Type:         txType,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, amount, balance_after, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		txn.ID, txn.AccountID, txn.Amount.String(), txn.BalanceAfter.String(), txn.Type, txn.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	_, err = dbTx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, version = version + 1, updated_at = $2 WHERE id = $3`,
		newBalance.String(), txn.CreatedAt, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	return txn, nil
}

// ApplyAccrual commits one account's accrual delta. The period mark insert
// fails on a duplicate (account, period) pair, which turns a double-run of
// the cycle into a no-op for that account. The version check rejects deltas
// computed from a stale balance snapshot.
func (r *PostgresRepository) ApplyAccrual(ctx context.Context, accountID uuid.UUID, expectedVersion int64, period string, amount decimal.Decimal, txType models.TransactionType) (*models.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO accrual_marks (account_id, period, marked_at) VALUES ($1, $2, $3)`,
		accountID, period, time.Now().UTC(),
	)
	if isUniqueViolation(err) {
		return nil, models.ErrAlreadyAccrued
	}
	if err != nil {
		return nil, fmt.Errorf("mark accrual period: %w", err)
	}

	var version int64
	err = dbTx.QueryRowContext(ctx,
		`SELECT version FROM accounts WHERE id = $1 FOR UPDATE`, accountID,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if version != expectedVersion {
		return nil, &models.ConflictError{
			Resource: "account",
			Reason:   "balance changed since the cycle snapshot",
		}
	}

	txn, err := recordEntryTx(ctx, dbTx, accountID, amount, txType)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accrual: %w", err)
	}
	return txn, nil
}

// ListTransactions returns ledger entries for an account in timestamp order,
// optionally restricted to a date range.
func (r *PostgresRepository) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT id, account_id, amount, balance_after, type, created_at
		FROM transactions
		WHERE account_id = $1`

	args := []interface{}{filter.AccountID}
	argIdx := 2

	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.From)
		argIdx++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.To)
		argIdx++
	}

	query += " ORDER BY created_at"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var amount, after string
		if err := rows.Scan(&txn.ID, &txn.AccountID, &amount, &after, &txn.Type, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		if txn.BalanceAfter, err = decimal.NewFromString(after); err != nil {
			return nil, fmt.Errorf("parse balance_after: %w", err)
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}
