package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/fiducialend/pkg/utils"
)

type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "Pending"
	LoanStatusActive   LoanStatus = "Active"
	LoanStatusRejected LoanStatus = "Rejected"
	LoanStatusOverdue  LoanStatus = "Overdue"
	LoanStatusPaidOff  LoanStatus = "Paid Off"
)

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending: {LoanStatusActive, LoanStatusRejected},
	LoanStatusActive:  {LoanStatusOverdue, LoanStatusPaidOff},
	LoanStatusOverdue: {LoanStatusActive, LoanStatusPaidOff},
}

// ParseLoanStatus validates a raw status string.
func ParseLoanStatus(s string) (LoanStatus, error) {
	switch st := LoanStatus(s); st {
	case LoanStatusPending, LoanStatusActive, LoanStatusRejected, LoanStatusOverdue, LoanStatusPaidOff:
		return st, nil
	}
	return "", fmt.Errorf("invalid loan status: %q", s)
}

// CanTransitionTo reports whether a loan in status s may move to next.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal is true for Rejected and Paid Off.
func (s LoanStatus) IsTerminal() bool {
	return len(loanTransitions[s]) == 0
}

// AcceptsPayments is true while a balance is being repaid.
func (s LoanStatus) AcceptsPayments() bool {
	return s == LoanStatusActive || s == LoanStatusOverdue
}

// Loan represents a loan entity. ID is the storage key; LoanID is the business
// identifier shown to borrowers and used by every lookup.
type Loan struct {
	ID                 uuid.UUID       `json:"-"`
	LoanID             string          `json:"id"`
	UserID             string          `json:"userId"`
	Amount             decimal.Decimal `json:"amount"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	TermInWeeks        int             `json:"termInWeeks"`
	TotalRepayment     decimal.Decimal `json:"totalRepayment"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	Status             LoanStatus      `json:"status"`
	NextPaymentDate    DueDate         `json:"nextPaymentDate"`
	NextPaymentAmount  decimal.Decimal `json:"nextPaymentAmount"`
	Reason             string          `json:"reason"`
	ApplicationDate    time.Time       `json:"applicationDate"`
	ActivatedAt        *time.Time      `json:"activatedAt,omitempty"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	Version            int             `json:"-"`
}

// Installment is the weekly amount due, rounded to currency precision.
func (l *Loan) Installment() decimal.Decimal {
	if l.TermInWeeks < 1 {
		return decimal.Zero
	}
	return l.TotalRepayment.Div(decimal.NewFromInt(int64(l.TermInWeeks))).Round(2)
}

// AmountPaid is the part of the total repayment already settled.
func (l *Loan) AmountPaid() decimal.Decimal {
	return l.TotalRepayment.Sub(l.OutstandingBalance)
}

// Activate approves a pending loan. The first installment falls due
// firstDueDays after the decision time.
func (l *Loan) Activate(now time.Time, firstDueDays int) error {
	if l.Status != LoanStatusPending {
		return l.transitionError(LoanStatusActive)
	}
	activated := now
	l.Status = LoanStatusActive
	l.ActivatedAt = &activated
	l.NextPaymentDate = DueOn(now.AddDate(0, 0, firstDueDays))
	l.UpdatedAt = now
	return nil
}

// Reject declines a pending loan. Only the status changes.
func (l *Loan) Reject(now time.Time) error {
	if !l.Status.CanTransitionTo(LoanStatusRejected) {
		return l.transitionError(LoanStatusRejected)
	}
	l.Status = LoanStatusRejected
	l.UpdatedAt = now
	return nil
}

// MarkOverdue moves an active loan whose next installment is past due.
func (l *Loan) MarkOverdue(now time.Time) error {
	if l.Status != LoanStatusActive {
		return l.transitionError(LoanStatusOverdue)
	}
	if !l.NextPaymentDate.Valid || !utils.IsDateOverdue(l.NextPaymentDate.Time, now) {
		return fmt.Errorf("loan %s is not past due", l.LoanID)
	}
	l.Status = LoanStatusOverdue
	l.UpdatedAt = now
	return nil
}

// ApplyPayment settles amount against the outstanding balance and recomputes
// the next installment. The caller validates 0 < amount <= outstanding.
func (l *Loan) ApplyPayment(amount decimal.Decimal, now time.Time, firstDueDays int) error {
	if !l.Status.AcceptsPayments() {
		return l.transitionError(LoanStatusPaidOff)
	}
	if !amount.IsPositive() || amount.GreaterThan(l.OutstandingBalance) {
		return fmt.Errorf("payment %s outside (0, %s]", amount, l.OutstandingBalance)
	}

	l.OutstandingBalance = l.OutstandingBalance.Sub(amount)
	l.UpdatedAt = now

	if l.OutstandingBalance.IsZero() {
		l.Status = LoanStatusPaidOff
		l.NextPaymentDate = NotApplicable()
		l.NextPaymentAmount = decimal.Zero
		return nil
	}

	installment := l.Installment()
	paid := l.AmountPaid()
	covered := int(paid.Div(installment).Floor().IntPart())
	if covered > l.TermInWeeks-1 {
		covered = l.TermInWeeks - 1
	}

	nextAmount := installment.Mul(decimal.NewFromInt(int64(covered + 1))).Sub(paid)
	if covered+1 >= l.TermInWeeks {
		nextAmount = l.OutstandingBalance
	}
	l.NextPaymentAmount = utils.MinDecimal(nextAmount, l.OutstandingBalance)

	start := now
	if l.ActivatedAt != nil {
		start = *l.ActivatedAt
	}
	l.NextPaymentDate = DueOn(start.AddDate(0, 0, firstDueDays+7*covered))

	if l.Status == LoanStatusOverdue && !utils.IsDateOverdue(l.NextPaymentDate.Time, now) {
		l.Status = LoanStatusActive
	}
	return nil
}

func (l *Loan) transitionError(to LoanStatus) error {
	return &TransitionError{LoanID: l.LoanID, From: l.Status, To: to}
}

// TransitionError reports a status change the lifecycle does not allow.
type TransitionError struct {
	LoanID string
	From   LoanStatus
	To     LoanStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("loan %s cannot move from %s to %s", e.LoanID, e.From, e.To)
}

// DTOs for requests and responses

type SubmitLoanRequest struct {
	Amount          decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	DurationInWeeks int             `json:"durationInWeeks" validate:"required,gte=1"`
	Reason          string          `json:"reason" validate:"max=500"`
}

type DecisionRequest struct {
	Decision LoanStatus `json:"decision" validate:"required,oneof=Active Rejected"`
}

type SubmitLoanResponse struct {
	Loan    *Loan  `json:"loan"`
	Quote   *Quote `json:"quote"`
	Message string `json:"message"`
}

type DecisionResponse struct {
	Loan *Loan `json:"loan"`
}
