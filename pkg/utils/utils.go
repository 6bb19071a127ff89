package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanIDPrefix is prepended to every business loan identifier.
const LoanIDPrefix = "LN"

// NewLoanID returns a business loan identifier backed by a random uuid.
func NewLoanID() string {
	return LoanIDPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// CalculateDueDate calculates the due date for a specific week
// Week 1 is due 7 days after start, Week 2 is due 14 days after, etc.
func CalculateDueDate(loanStartDate time.Time, weekNumber int) time.Time {
	return loanStartDate.AddDate(0, 0, weekNumber*7)
}

// IsDateOverdue reports whether dueDate lies strictly before the start of now's day.
func IsDateOverdue(dueDate, now time.Time) bool {
	return StartOfDay(dueDate).Before(StartOfDay(now))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CeilDiv returns ceil(a/b) for positive integers.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
