package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NotApplicableDate is the wire value of a missing due date.
const NotApplicableDate = "N/A"

const dueDateLayout = "2006-01-02"

// DueDate is a calendar date that may be absent. It renders as "N/A" when
// not set.
type DueDate struct {
	Time  time.Time
	Valid bool
}

func NotApplicable() DueDate { return DueDate{} }

func DueOn(t time.Time) DueDate { return DueDate{Time: t, Valid: true} }

func (d DueDate) String() string {
	if !d.Valid {
		return NotApplicableDate
	}
	return d.Time.Format(dueDateLayout)
}

func (d DueDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DueDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = NotApplicable()
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" || raw == NotApplicableDate {
		*d = NotApplicable()
		return nil
	}
	for _, layout := range []string{dueDateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			*d = DueOn(t)
			return nil
		}
	}
	return fmt.Errorf("invalid due date %q", raw)
}

// Quote is what a borrower sees before submitting a loan request.
type Quote struct {
	Amount          decimal.Decimal `json:"amount"`
	DurationInWeeks int             `json:"durationInWeeks"`
	InterestRate    decimal.Decimal `json:"interestRate"`
	TotalInterest   decimal.Decimal `json:"totalInterest"`
	TotalRepayment  decimal.Decimal `json:"totalRepayment"`
	WeeklyPayment   decimal.Decimal `json:"weeklyPayment"`
}

// ScheduleEntry is one week of the display amortization schedule.
type ScheduleEntry struct {
	WeekNumber       int             `json:"weekNumber"`
	DueDate          DueDate         `json:"dueDate"`
	Payment          decimal.Decimal `json:"payment"`
	PrincipalPayment decimal.Decimal `json:"principalPayment"`
	InterestPayment  decimal.Decimal `json:"interestPayment"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

type ScheduleResponse struct {
	LoanID   string           `json:"loanId"`
	Quote    *Quote           `json:"quote"`
	Schedule []*ScheduleEntry `json:"schedule"`
}
