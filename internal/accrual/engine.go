// Package accrual implements the periodic balance-accrual cycle: savings
// accounts earn one month of interest, checking accounts pay their service
// charge. The numeric pass is a pure function over an account snapshot;
// persistence commits each account's delta atomically and in isolation, so
// one bad account never blocks the rest of the batch.
package accrual

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/emi"
	"github.com/Tejazzz/banking-system/internal/models"
	"github.com/Tejazzz/banking-system/internal/repository"
)

// Publisher is the event sink for cycle summaries. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

const subjectCycleCompleted = "accrual.cycle.completed"

// Delta is one account's computed accrual: the signed ledger amount and the
// version of the snapshot it was derived from.
type Delta struct {
	AccountID       uuid.UUID
	SnapshotVersion int64
	Amount          decimal.Decimal
	Type            models.TransactionType
	NewBalance      decimal.Decimal
}

// CycleResult is the outcome of the pure computation pass.
type CycleResult struct {
	Deltas   []Delta
	Skipped  []uuid.UUID
	Failures []models.AccountFailure
}

// ComputeCycle derives accrual deltas for every account in the snapshot.
// Only accounts with a positive balance participate. Checking accounts whose
// balance does not exceed the service charge are skipped, not failed.
func ComputeCycle(accounts []models.Account) CycleResult {
	var result CycleResult

	for _, a := range accounts {
		if !a.Balance.GreaterThan(decimal.Zero) {
			continue
		}

		switch a.AccountType {
		case models.AccountTypeSavings:
			interest := a.Balance.Mul(emi.MonthlyRate(a.InterestRate)).Round(2)
			result.Deltas = append(result.Deltas, Delta{
				AccountID:       a.ID,
				SnapshotVersion: a.Version,
				Amount:          interest,
				Type:            models.TransactionTypeInterest,
				NewBalance:      a.Balance.Add(interest),
			})

		case models.AccountTypeChecking:
			if !a.Balance.GreaterThan(a.ServiceCharge) {
				result.Skipped = append(result.Skipped, a.ID)
				continue
			}
			result.Deltas = append(result.Deltas, Delta{
				AccountID:       a.ID,
				SnapshotVersion: a.Version,
				Amount:          a.ServiceCharge.Neg(),
				Type:            models.TransactionTypeCharge,
				NewBalance:      a.Balance.Sub(a.ServiceCharge),
			})

		default:
			result.Failures = append(result.Failures, models.AccountFailure{
				AccountID: a.ID,
				Err:       &models.ValidationError{Field: "account_type", Reason: string(a.AccountType)},
				Message:   "unknown account type " + string(a.AccountType),
			})
		}
	}
	return result
}

// Summary reports one full cycle run.
type Summary struct {
	Period         string                  `json:"period"`
	Applied        int                     `json:"applied"`
	Skipped        int                     `json:"skipped"`
	AlreadyAccrued int                     `json:"already_accrued"`
	Failures       []models.AccountFailure `json:"failures,omitempty"`
	Transactions   []models.Transaction    `json:"-"`
	StartedAt      time.Time               `json:"started_at"`
	FinishedAt     time.Time               `json:"finished_at"`
}

// Engine runs accrual cycles against the repository. It owns no scheduling
// state; the caller decides when a cycle runs.
type Engine struct {
	repo repository.Repository
	pub  Publisher
	now  func() time.Time
}

func NewEngine(repo repository.Repository, pub Publisher) *Engine {
	return &Engine{repo: repo, pub: pub, now: time.Now}
}

// Period formats the accrual period for a point in time, one per calendar
// month.
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Run executes one accrual cycle for the given period. Every delta commits
// independently; failures are collected per account and returned as a
// BatchPartialFailure alongside the summary, never aborting the batch. An
// account already marked for the period counts as AlreadyAccrued, which
// makes a double invocation of the same period a no-op.
func (e *Engine) Run(ctx context.Context, period string) (*Summary, error) {
	summary := &Summary{Period: period, StartedAt: e.now().UTC()}

	accounts, err := e.repo.ListAccrualCandidates(ctx)
	if err != nil {
		return nil, err
	}

	result := ComputeCycle(accounts)
	summary.Skipped = len(result.Skipped)
	summary.Failures = append(summary.Failures, result.Failures...)

	for _, d := range result.Deltas {
		txn, err := e.repo.ApplyAccrual(ctx, d.AccountID, d.SnapshotVersion, period, d.Amount, d.Type)
		switch {
		case errors.Is(err, models.ErrAlreadyAccrued):
			summary.AlreadyAccrued++
		case err != nil:
			log.Printf("ERROR: accrual for account %s: %v", d.AccountID, err)
			summary.Failures = append(summary.Failures, models.AccountFailure{
				AccountID: d.AccountID,
				Err:       err,
				Message:   err.Error(),
			})
		default:
			summary.Applied++
			summary.Transactions = append(summary.Transactions, *txn)
		}
	}

	summary.FinishedAt = e.now().UTC()
	e.publish(summary)

	if len(summary.Failures) > 0 {
		return summary, &models.BatchPartialFailure{Failures: summary.Failures}
	}
	return summary, nil
}

func (e *Engine) publish(summary *Summary) {
	if e.pub == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := e.pub.Publish(subjectCycleCompleted, data); err != nil {
		log.Printf("WARN: publish cycle summary: %v", err)
	}
}
