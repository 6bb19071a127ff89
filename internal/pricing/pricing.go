// Package pricing computes the rate, repayment and display schedule a borrower
// is quoted for a weekly loan.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/fiducialend/internal/domain"
	apperrors "github.com/segyhp/fiducialend/pkg/errors"
	"github.com/segyhp/fiducialend/pkg/utils"
)

// Fixed rates for terms shorter than one compounding block.
var shortTermRates = map[int]decimal.Decimal{
	1: decimal.RequireFromString("0.15"),
	2: decimal.RequireFromString("0.20"),
	3: decimal.RequireFromString("0.25"),
}

var (
	blockGrowth = decimal.RequireFromString("1.30")
	one         = decimal.NewFromInt(1)
)

// BlockWeeks is the length of one compounding block for longer terms.
const BlockWeeks = 4

// RateFor returns the aggregate interest rate for a term. Terms of four weeks
// or more compound 30% per started block of four weeks.
func RateFor(weeks int) (decimal.Decimal, error) {
	if weeks < 1 {
		return decimal.Zero, apperrors.WrapInvalidDuration(weeks)
	}
	if rate, ok := shortTermRates[weeks]; ok {
		return rate, nil
	}
	growth := one
	for i := 0; i < utils.CeilDiv(weeks, BlockWeeks); i++ {
		growth = growth.Mul(blockGrowth)
	}
	return growth.Sub(one), nil
}

// Quote prices amount over weeks. Values are exact; rounding is left to
// presentation and to the persisted installment.
func Quote(amount decimal.Decimal, weeks int) (*domain.Quote, error) {
	rate, err := RateFor(weeks)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperrors.WrapInvalidLoanAmount(amount.String())
	}

	totalInterest := amount.Mul(rate)
	totalRepayment := amount.Add(totalInterest)

	return &domain.Quote{
		Amount:          amount,
		DurationInWeeks: weeks,
		InterestRate:    rate,
		TotalInterest:   totalInterest,
		TotalRepayment:  totalRepayment,
		WeeklyPayment:   totalRepayment.Div(decimal.NewFromInt(int64(weeks))),
	}, nil
}

// Schedule splits a quote into flat weekly entries: every week carries the same
// interest share and the remainder of the installment is principal. When start
// is nil the entries have no due dates.
func Schedule(q *domain.Quote, start *time.Time) []*domain.ScheduleEntry {
	weeks := decimal.NewFromInt(int64(q.DurationInWeeks))
	interest := q.TotalInterest.Div(weeks)
	principal := q.WeeklyPayment.Sub(interest)
	remaining := q.TotalRepayment

	entries := make([]*domain.ScheduleEntry, 0, q.DurationInWeeks)
	for week := 1; week <= q.DurationInWeeks; week++ {
		remaining = remaining.Sub(q.WeeklyPayment)
		if week == q.DurationInWeeks {
			remaining = decimal.Zero
		}

		due := domain.NotApplicable()
		if start != nil {
			due = domain.DueOn(utils.CalculateDueDate(*start, week))
		}

		entries = append(entries, &domain.ScheduleEntry{
			WeekNumber:       week,
			DueDate:          due,
			Payment:          q.WeeklyPayment,
			PrincipalPayment: principal,
			InterestPayment:  interest,
			RemainingBalance: remaining,
		})
	}
	return entries
}
