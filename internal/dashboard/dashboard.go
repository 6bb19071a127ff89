// Package dashboard derives the borrower overview from an immutable snapshot
// of their records.
package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/fiducialend/internal/domain"
)

// DefaultRecentPayments is how many payments the overview lists.
const DefaultRecentPayments = 5

// Snapshot is a point-in-time copy of one user's records. Selectors never
// modify it.
type Snapshot struct {
	Loans        []*domain.Loan
	Payments     []*domain.Payment
	Transactions []*domain.PersonalTransaction
	TakenAt      time.Time
}

// NewSnapshot copies the slices it is given.
func NewSnapshot(loans []*domain.Loan, payments []*domain.Payment, txs []*domain.PersonalTransaction, takenAt time.Time) *Snapshot {
	return &Snapshot{
		Loans:        append([]*domain.Loan(nil), loans...),
		Payments:     append([]*domain.Payment(nil), payments...),
		Transactions: append([]*domain.PersonalTransaction(nil), txs...),
		TakenAt:      takenAt,
	}
}

// ActiveLoan returns the most recently applied-for loan still being repaid,
// or nil.
func ActiveLoan(s *Snapshot) *domain.Loan {
	var current *domain.Loan
	for _, l := range s.Loans {
		if !l.Status.AcceptsPayments() {
			continue
		}
		if current == nil || l.ApplicationDate.After(current.ApplicationDate) {
			current = l
		}
	}
	return current
}

// TotalDebt sums the outstanding balance of loans being repaid.
func TotalDebt(s *Snapshot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Loans {
		if l.Status.AcceptsPayments() {
			total = total.Add(l.OutstandingBalance)
		}
	}
	return total
}

// RecentPayments returns up to n payments, newest first.
func RecentPayments(s *Snapshot, n int) []*domain.Payment {
	payments := append([]*domain.Payment(nil), s.Payments...)
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Date.After(payments[j].Date)
	})
	if n >= 0 && len(payments) > n {
		payments = payments[:n]
	}
	return payments
}

// Balance is the personal ledger balance.
func Balance(s *Snapshot) decimal.Decimal {
	return domain.Summarize(s.Transactions).Balance
}

// View is the rendered overview.
type View struct {
	ActiveLoan     *domain.Loan      `json:"activeLoan"`
	TotalDebt      decimal.Decimal   `json:"totalDebt"`
	RecentPayments []*domain.Payment `json:"recentPayments"`
	Balance        decimal.Decimal   `json:"balance"`
	LoanCount      int               `json:"loanCount"`
	AsOf           time.Time         `json:"asOf"`
}

// Render applies every selector to s.
func Render(s *Snapshot) *View {
	return &View{
		ActiveLoan:     ActiveLoan(s),
		TotalDebt:      TotalDebt(s),
		RecentPayments: RecentPayments(s, DefaultRecentPayments),
		Balance:        Balance(s),
		LoanCount:      len(s.Loans),
		AsOf:           s.TakenAt,
	}
}
