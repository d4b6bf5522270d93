// Package emi computes equated monthly installments and amortization
// schedules. All arithmetic is done in decimal to avoid binary-float drift;
// amounts are rounded half-up to 2 places at the boundaries only.
package emi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Tejazzz/banking-system/internal/models"
)

// MaxEMI is the largest representable installment. Computations that exceed
// it are clamped and flagged, never silently overflowed.
var MaxEMI = decimal.RequireFromString("99999999.99")

var (
	one          = decimal.NewFromInt(1)
	monthsInYear = decimal.NewFromInt(12)
	hundred      = decimal.NewFromInt(100)
)

// Result carries the computed installment. Capped is set when the raw value
// exceeded MaxEMI and was clamped; callers must surface it, not drop it.
type Result struct {
	EMI    decimal.Decimal
	Capped bool
}

// Compute returns the fixed monthly installment for a loan.
//
//	monthlyRate = annualRatePercent / 100 / 12
//	EMI         = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate degenerates to an even split of the principal. The result is
// rounded half-up to 2 decimal places.
func Compute(principal, annualRatePercent decimal.Decimal, termMonths int) (Result, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return Result{}, &models.ValidationError{Field: "principal", Reason: "must be positive"}
	}
	if annualRatePercent.IsNegative() {
		return Result{}, &models.ValidationError{Field: "interest_rate", Reason: "must not be negative"}
	}
	if termMonths <= 0 {
		return Result{}, &models.ValidationError{Field: "tenure", Reason: "must be a positive number of months"}
	}

	var emi decimal.Decimal
	if annualRatePercent.IsZero() {
		emi = principal.DivRound(decimal.NewFromInt(int64(termMonths)), 2)
	} else {
		r := MonthlyRate(annualRatePercent)
		factor := one.Add(r).Pow(decimal.NewFromInt(int64(termMonths)))
		emi = principal.Mul(r).Mul(factor).Div(factor.Sub(one)).Round(2)
	}

	if emi.GreaterThan(MaxEMI) {
		return Result{EMI: MaxEMI, Capped: true}, nil
	}
	return Result{EMI: emi}, nil
}

// MonthlyRate converts an annual percentage rate to a monthly decimal rate.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(monthsInYear)
}

// ScheduleEntry is one period of an amortization schedule.
type ScheduleEntry struct {
	Period           int             `json:"period"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Schedule expands a loan into its full amortization table. The last period
// absorbs accumulated rounding so the remaining balance lands on exactly
// zero.
func Schedule(principal, annualRatePercent decimal.Decimal, termMonths int) ([]ScheduleEntry, error) {
	res, err := Compute(principal, annualRatePercent, termMonths)
	if err != nil {
		return nil, err
	}
	if res.Capped {
		return nil, fmt.Errorf("amortization schedule: installment exceeds %s", MaxEMI)
	}

	r := MonthlyRate(annualRatePercent)
	entries := make([]ScheduleEntry, 0, termMonths)
	remaining := principal

	for period := 1; period <= termMonths; period++ {
		interest := remaining.Mul(r).Round(2)
		payment := res.EMI
		principalPart := payment.Sub(interest)

		if period == termMonths {
			principalPart = remaining
			payment = principalPart.Add(interest)
		}

		remaining = remaining.Sub(principalPart)
		entries = append(entries, ScheduleEntry{
			Period:           period,
			Payment:          payment,
			Principal:        principalPart,
			Interest:         interest,
			RemainingBalance: remaining,
		})
	}
	return entries, nil
}
